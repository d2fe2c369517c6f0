package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var monitorCoordinator string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a running coordinator's dispatch progress in a terminal UI",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorCoordinator, "coordinator", "", "coordinator base URL (default from config's coordinator_addr)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	base := monitorCoordinator
	if base == "" {
		base = "http://localhost" + cfg.CoordinatorAddr
	}

	ui := newMonitorUI()
	if err := ui.Start(); err != nil {
		return fmt.Errorf("start monitor UI: %w", err)
	}
	defer ui.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		done, cycles, err := pollCoordinator(client, base)
		if err != nil {
			ui.SetStatus(fmt.Sprintf("[red]poll error:[white] %v", err))
			continue
		}
		ui.Update(done, cycles)
	}
	return nil
}

func pollCoordinator(client *http.Client, base string) (done []string, cycles map[string]string, err error) {
	var doneResp struct {
		Packages []string `json:"packages"`
	}
	if err := getJSON(client, base+"/donelist/", &doneResp); err != nil {
		return nil, nil, err
	}

	var cycleResp map[string]string
	if err := getJSON(client, base+"/mappackagetocycle/", &cycleResp); err != nil {
		return nil, nil, err
	}

	return doneResp.Packages, cycleResp, nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// monitorUI is a trimmed-down relative of the teacher's NcursesUI: a header
// line with the done count, a panel listing done bases, and a scrolling list
// of named cycles, refreshed
// once a second from the coordinator's JSON endpoints instead of from an
// in-process build loop.
type monitorUI struct {
	app        *tview.Application
	headerText *tview.TextView
	doneText   *tview.TextView
	cyclesText *tview.TextView
	layout     *tview.Flex

	mu      sync.Mutex
	stopped bool
}

func newMonitorUI() *monitorUI {
	return &monitorUI{}
}

func (ui *monitorUI) Start() error {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	ui.app = tview.NewApplication()

	ui.headerText = tview.NewTextView().SetDynamicColors(true)
	ui.headerText.SetBorder(true).SetTitle(" rpmsynth monitor ")
	ui.headerText.SetText("[yellow]Connecting...[white]")

	ui.doneText = tview.NewTextView().SetDynamicColors(true)
	ui.doneText.SetBorder(true).SetTitle(" Done ")

	ui.cyclesText = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	ui.cyclesText.SetBorder(true).SetTitle(" Co-build cycles ")

	ui.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.headerText, 3, 0, false).
		AddItem(ui.doneText, 0, 1, false).
		AddItem(ui.cyclesText, 0, 2, false)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || (event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q')) {
			ui.app.Stop()
			return nil
		}
		return event
	})

	go func() {
		_ = ui.app.SetRoot(ui.layout, true).EnableMouse(true).Run()
	}()
	time.Sleep(100 * time.Millisecond)
	return nil
}

func (ui *monitorUI) Stop() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.stopped {
		return
	}
	ui.stopped = true
	if ui.app != nil {
		ui.app.Stop()
	}
}

func (ui *monitorUI) SetStatus(text string) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.app == nil || ui.stopped {
		return
	}
	ui.app.QueueUpdateDraw(func() {
		ui.headerText.SetText(text)
	})
}

func (ui *monitorUI) Update(done []string, pkgToCycle map[string]string) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.app == nil || ui.stopped {
		return
	}

	header := fmt.Sprintf("[green]Done:[white] %d packages   [gray](press q to quit)[white]", len(done))

	doneText := ""
	sort.Strings(done)
	for _, base := range done {
		doneText += base + "\n"
	}

	byCycle := make(map[string][]string)
	for pkg, cycle := range pkgToCycle {
		byCycle[cycle] = append(byCycle[cycle], pkg)
	}
	cycleIDs := make([]string, 0, len(byCycle))
	for id := range byCycle {
		cycleIDs = append(cycleIDs, id)
	}
	sort.Strings(cycleIDs)

	cyclesText := ""
	for _, id := range cycleIDs {
		members := byCycle[id]
		sort.Strings(members)
		cyclesText += fmt.Sprintf("[cyan]%s[white]: %v\n", id, members)
	}
	if cyclesText == "" {
		cyclesText = "(none)"
	}

	ui.app.QueueUpdateDraw(func() {
		ui.headerText.SetText(header)
		ui.doneText.SetText(doneText)
		ui.cyclesText.SetText(cyclesText)
	})
}
