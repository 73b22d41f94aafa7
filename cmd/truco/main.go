// Command truco plays an interactive Argentine Truco match against the
// learning AI in the terminal.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/JuanchoGithub/truco-ai/engine"
	"github.com/JuanchoGithub/truco-ai/internal/config"
	"github.com/JuanchoGithub/truco-ai/internal/profile"
	"github.com/JuanchoGithub/truco-ai/internal/session"
)

func main() {
	cfg := config.Load()
	log := logrus.WithField("component", "cli")

	var store profile.Store
	if cfg.ProfileDB == "memory" {
		store = profile.NewMemStore()
	} else {
		s, err := profile.OpenSQLite(cfg.ProfileDB)
		if err != nil {
			pterm.Error.Printfln("cannot open profile database: %v", err)
			os.Exit(1)
		}
		store = s
	}
	defer store.Close()

	sess, err := session.New(session.Config{
		Store:      store,
		ProfileKey: cfg.ProfileKey,
		Rules: engine.Rules{
			TargetScore: cfg.TargetScore,
			FlorEnabled: cfg.FlorEnabled,
			InitialMano: engine.SeatPlayer,
		},
		Seed:       cfg.Seed,
		ThinkDelay: cfg.ThinkDelay,
		Log:        logrus.NewEntry(logrus.StandardLogger()),
	})
	if err != nil {
		pterm.Error.Printfln("cannot start session: %v", err)
		os.Exit(1)
	}
	defer sess.Close()

	updates := make(chan struct{}, 1)
	sess.SetOnUpdate(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	pterm.DefaultHeader.WithFullWidth().Println("TRUCO")

	ui := &cli{sess: sess, cfg: cfg, updates: updates, log: log}
	ui.run()
}

type cli struct {
	sess    *session.Session
	cfg     config.Config
	updates chan struct{}
	log     *logrus.Entry
	msgSeen int
}

func (c *cli) run() {
	for {
		st := c.sess.State()
		c.printNewMessages(&st)

		switch {
		case st.Phase == engine.PhaseGameOver:
			if !c.gameOverMenu(&st) {
				return
			}

		case st.Phase == engine.PhaseRoundEnd:
			if !c.roundEndMenu(&st) {
				return
			}

		case st.ActingSeat() == engine.SeatPlayer:
			c.renderTable(&st)
			c.playerTurn(&st)

		default:
			c.waitForAI()
		}
	}
}

// printNewMessages flushes engine log entries not yet shown.
func (c *cli) printNewMessages(st *engine.GameState) {
	for ; c.msgSeen < len(st.MessageLog); c.msgSeen++ {
		pterm.Println(pterm.Gray("  » " + st.MessageLog[c.msgSeen]))
	}
}

func (c *cli) renderTable(st *engine.GameState) {
	pterm.Println()
	pterm.DefaultSection.Printfln("Round %d, trick %d  |  you %d : %d ai  (to %d)",
		st.Round, st.CurrentTrick+1, st.PlayerScore, st.AIScore, st.Rules.Target())

	rows := pterm.TableData{{"", "Trick 1", "Trick 2", "Trick 3"}}
	you := []string{"You"}
	opp := []string{"AI"}
	for i := 0; i < 3; i++ {
		you = append(you, st.PlayerTricks[i].String())
		opp = append(opp, st.AITricks[i].String())
	}
	rows = append(rows, you, opp)
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	hand := describeHand(st.PlayerHand)
	pterm.Info.Printfln("Your hand: %s  (envido %d)",
		hand, engine.EnvidoValue(st.InitialPlayerHand[:]))
	if c.cfg.ViewAICards {
		pterm.Warning.Printfln("AI hand (debug): %s", describeHand(st.AIHand))
	}
}

func describeHand(hand [engine.HandSize]engine.Card) string {
	var parts []string
	for _, card := range hand {
		if card != engine.EmptyCard {
			parts = append(parts, card.String())
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}

// playerTurn renders the legal actions and dispatches the chosen one.
func (c *cli) playerTurn(st *engine.GameState) {
	actions := st.LegalActionsList()
	labels := make([]string, 0, len(actions)+1)
	byLabel := make(map[string]engine.Action, len(actions))
	for _, a := range actions {
		l := actionLabel(st, a)
		labels = append(labels, l)
		byLabel[l] = a
	}
	labels = append(labels, "· menu")

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(labels).
		WithDefaultText("Your move").
		Show()
	if err != nil {
		c.log.WithError(err).Error("prompt failed")
		return
	}
	if choice == "· menu" {
		c.metaMenu()
		return
	}
	if err := c.sess.Dispatch(byLabel[choice]); err != nil {
		pterm.Error.Printfln("rejected: %v", err)
	}
}

func actionLabel(st *engine.GameState, a engine.Action) string {
	if idx, ok := engine.ActionIsPlayCard(a); ok {
		return "Play " + st.PlayerHand[idx].String()
	}
	switch a {
	case engine.ActionCallEnvido:
		return "Envido"
	case engine.ActionCallRealEnvido:
		return "Real envido"
	case engine.ActionCallFaltaEnvido:
		return "Falta envido"
	case engine.ActionCallTruco:
		return "Truco"
	case engine.ActionCallRetruco:
		return "Retruco"
	case engine.ActionCallValeCuatro:
		return "Vale cuatro"
	case engine.ActionDeclareFlor:
		return "Flor"
	case engine.ActionCallContraflor:
		return "Contraflor"
	case engine.ActionAccept:
		return "Quiero"
	case engine.ActionDecline:
		return "No quiero"
	case engine.ActionStartRound:
		return "Deal next round"
	}
	return a.String()
}

// waitForAI blocks on the update channel while the AI thinks.
func (c *cli) waitForAI() {
	spinner, _ := pterm.DefaultSpinner.Start("AI is thinking...")
	select {
	case <-c.updates:
	case <-time.After(30 * time.Second):
		c.log.Warn("timed out waiting for ai move")
	}
	if spinner != nil {
		spinner.Stop()
	}
}

// ---------------------------------------------------------------------------
// Menus
// ---------------------------------------------------------------------------

func (c *cli) roundEndMenu(st *engine.GameState) bool {
	pterm.Println()
	if st.LastSummary != nil {
		s := st.LastSummary
		pterm.DefaultSection.Printfln("Round %d goes to %s  |  you %d : %d ai",
			s.Round, s.Winner, st.PlayerScore, st.AIScore)
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{
			"Deal next round",
			"Round history",
			"AI reasoning",
			"Export profile",
			"Import profile",
			"Reset AI profile",
			"Quit",
		}).
		Show()
	if err != nil {
		return false
	}
	switch choice {
	case "Deal next round":
		if err := c.sess.Dispatch(engine.ActionStartRound); err != nil {
			pterm.Error.Printfln("cannot deal: %v", err)
		}
	case "Round history":
		c.showHistory()
	case "AI reasoning":
		c.showReasoning()
	case "Export profile":
		c.exportProfile()
	case "Import profile":
		c.importProfile()
	case "Reset AI profile":
		c.resetProfile()
	case "Quit":
		return false
	}
	return true
}

func (c *cli) gameOverMenu(st *engine.GameState) bool {
	pterm.Println()
	if st.Winner == engine.SeatPlayer {
		pterm.Success.Printfln("You win the match %d–%d!", st.PlayerScore, st.AIScore)
	} else {
		pterm.Error.Printfln("The AI wins the match %d–%d.", st.AIScore, st.PlayerScore)
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"New match", "Round history", "AI reasoning", "Export profile", "Import profile", "Quit"}).
		Show()
	if err != nil {
		return false
	}
	switch choice {
	case "New match":
		c.sess.NewMatch(0)
		c.msgSeen = 0
	case "Round history":
		c.showHistory()
	case "AI reasoning":
		c.showReasoning()
	case "Export profile":
		c.exportProfile()
	case "Import profile":
		c.importProfile()
	case "Quit":
		return false
	}
	return true
}

func (c *cli) metaMenu() {
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Back to game", "Round history", "AI reasoning", "Export profile", "Import profile"}).
		Show()
	if err != nil {
		return
	}
	switch choice {
	case "Round history":
		c.showHistory()
	case "AI reasoning":
		c.showReasoning()
	case "Export profile":
		c.exportProfile()
	case "Import profile":
		c.importProfile()
	}
}

func (c *cli) showHistory() {
	history := c.sess.History()
	if len(history) == 0 {
		pterm.Info.Println("No finished rounds yet.")
		return
	}
	rows := pterm.TableData{{"Round", "Mano", "Calls", "Truco", "Winner"}}
	for _, s := range history {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Round),
			s.Mano,
			strings.Join(s.Calls, ", "),
			fmt.Sprintf("L%d", s.TrucoLevel),
			s.Winner,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func (c *cli) showReasoning() {
	entries := c.sess.Reasoning()
	if len(entries) == 0 {
		pterm.Info.Println("No AI decisions recorded yet.")
		return
	}
	// Show the tail; the full log lives in the profile export.
	start := 0
	if len(entries) > 10 {
		start = len(entries) - 10
	}
	for _, e := range entries[start:] {
		pterm.DefaultSection.WithLevel(2).Printfln("Round %d: %s", e.Round, e.Action)
		for _, item := range e.Items {
			pterm.Println("  " + renderTraceItem(item))
		}
	}
}

// renderTraceItem resolves a structured trace entry to display text.
func renderTraceItem(item engine.TraceItem) string {
	if item.Text != "" {
		return item.Text
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimPrefix(item.Key, "reason."))
	for k, v := range item.Opts {
		fmt.Fprintf(&sb, " %s=%s", k, v)
	}
	return sb.String()
}

func (c *cli) exportProfile() {
	data, err := c.sess.ExportProfile()
	if err != nil {
		pterm.Error.Printfln("export failed: %v", err)
		return
	}
	path := fmt.Sprintf("truco-profile-%s.json", time.Now().Format("20060102-150405"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		pterm.Error.Printfln("cannot write %s: %v", path, err)
		return
	}
	pterm.Success.Printfln("Profile exported to %s", path)
}

func (c *cli) importProfile() {
	path, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Path to a profile JSON export").
		Show()
	if err != nil {
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		pterm.Error.Printfln("cannot read %s: %v", path, err)
		return
	}
	if err := c.sess.ImportProfile(data); err != nil {
		pterm.Error.Printfln("import rejected: %v", err)
		return
	}
	pterm.Success.Println("Profile imported.")
}

func (c *cli) resetProfile() {
	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText("Erase everything the AI has learned about you?").
		Show()
	if err != nil || !ok {
		return
	}
	if err := c.sess.ResetProfile(); err != nil {
		pterm.Error.Printfln("reset failed: %v", err)
		return
	}
	pterm.Success.Println("AI profile reset.")
}
