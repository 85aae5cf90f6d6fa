// Package cli implements the interactive shell around a session.
//
// With a TTY on stdin it runs a go-prompt REPL with completion over
// commands and the loaded dataset's column names. Piped input falls
// back to a plain line reader so the tool stays scriptable.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/persist"
	"github.com/mizzou-racing/monolith/internal/query"
	"github.com/mizzou-racing/monolith/internal/session"
	"github.com/mizzou-racing/monolith/internal/transform"
)

// REPL drives a session from an interactive or piped command stream.
type REPL struct {
	sess *session.Session
	out  io.Writer
	done bool
}

// New creates a REPL over the given session, writing to stdout.
func New(sess *session.Session) *REPL {
	return &REPL{sess: sess, out: os.Stdout}
}

// Run blocks until the user exits. TTY input gets the full prompt with
// completion; anything else is read line by line.
func (r *REPL) Run() {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		p := prompt.New(
			r.execute,
			r.complete,
			prompt.OptionTitle("monolith"),
			prompt.OptionPrefix("monolith> "),
			prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
				return r.done
			}),
		)
		p.Run()
		return
	}

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() && !r.done {
		r.execute(sc.Text())
	}
}

var commands = []prompt.Suggest{
	{Text: "ingest", Description: "ingest <dir>: parse the rate logs in a directory"},
	{Text: "load", Description: "load <file>: reopen a saved dataset"},
	{Text: "save", Description: "write the dataset and settings to disk"},
	{Text: "columns", Description: "list dataset columns"},
	{Text: "settings", Description: "settings <column>: show column settings"},
	{Text: "set", Description: "set <column> <field> <value>: edit one settings field"},
	{Text: "swap", Description: "swap <a> <b>: exchange two columns' settings"},
	{Text: "render", Description: "render <x> <y> [z] [color]: resolve a graph"},
	{Text: "snapshot", Description: "snapshot <file> <x> <y> [z] [color]: freeze a graph"},
	{Text: "open", Description: "open <file>: inspect a frozen snapshot"},
	{Text: "stats", Description: "stats <column>: summarize a column"},
	{Text: "trend", Description: "trend <column> <linear|poly N|avg N|log>"},
	{Text: "preset", Description: "preset list|save|use|rm"},
	{Text: "export", Description: "export <file>: write a Parquet export"},
	{Text: "query", Description: "query <file> <column> [start end]: read back an export"},
	{Text: "dirty", Description: "show unsaved-changes flags"},
	{Text: "help", Description: "list commands"},
	{Text: "exit", Description: "leave the shell"},
}

func (r *REPL) complete(d prompt.Document) []prompt.Suggest {
	args := strings.Fields(d.TextBeforeCursor())
	if len(args) <= 1 && !strings.HasSuffix(d.TextBeforeCursor(), " ") {
		return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
	}

	// Past the command word, offer column names where they make sense.
	switch args[0] {
	case "settings", "set", "swap", "render", "snapshot", "stats", "trend":
		names, err := r.sess.Columns()
		if err != nil {
			return nil
		}
		suggestions := make([]prompt.Suggest, len(names))
		for i, n := range names {
			suggestions[i] = prompt.Suggest{Text: n}
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	}
	return nil
}

func (r *REPL) execute(line string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}

	var err error
	switch args[0] {
	case "exit", "quit":
		r.done = true
		return
	case "help":
		for _, c := range commands {
			fmt.Fprintf(r.out, "  %-10s %s\n", c.Text, c.Description)
		}
		return
	case "ingest":
		err = r.ingest(args[1:])
	case "load":
		err = r.load(args[1:])
	case "save":
		err = r.save()
	case "columns":
		err = r.columns()
	case "settings":
		err = r.showSettings(args[1:])
	case "set":
		err = r.setField(args[1:])
	case "swap":
		err = r.swap(args[1:])
	case "render":
		err = r.render(args[1:])
	case "snapshot":
		err = r.snapshot(args[1:])
	case "open":
		err = r.open(args[1:])
	case "stats":
		err = r.stats(args[1:])
	case "trend":
		err = r.trend(args[1:])
	case "preset":
		err = r.preset(args[1:])
	case "export":
		err = r.export(args[1:])
	case "query":
		err = r.query(args[1:])
	case "dirty":
		err = r.dirty()
	default:
		fmt.Fprintf(r.out, "unknown command %q, try help\n", args[0])
		return
	}

	if err != nil {
		if errors.IsWarning(err) {
			fmt.Fprintf(r.out, "warning: %v\n", err)
		} else {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func usage(msg string) error { return errors.NewFormat("", "usage: "+msg) }

func (r *REPL) ingest(args []string) error {
	if len(args) != 1 {
		return usage("ingest <dir>")
	}
	err := r.sess.Ingest(context.Background(), args[0], func(source string, rows int) {
		fmt.Fprintf(r.out, "  %s: %s rows\r", source, humanize.Comma(int64(rows)))
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	return r.columns()
}

func (r *REPL) load(args []string) error {
	if len(args) != 1 {
		return usage("load <file>")
	}
	if err := r.sess.LoadDataset(args[0]); err != nil {
		return err
	}
	return r.columns()
}

func (r *REPL) save() error {
	path, err := r.sess.SaveDataset()
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "saved %s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	return nil
}

func (r *REPL) columns() error {
	names, err := r.sess.Columns()
	if err != nil {
		return err
	}
	rows, err := r.sess.Rows()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s rows, %d columns: %s\n",
		humanize.Comma(int64(rows)), len(names), strings.Join(names, ", "))
	return nil
}

func (r *REPL) showSettings(args []string) error {
	if len(args) != 1 {
		return usage("settings <column>")
	}
	s, err := r.sess.GetSettings(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s:\n", args[0])
	fmt.Fprintf(r.out, "  conv      %g\n", s.ConversionRate)
	fmt.Fprintf(r.out, "  unit      %s\n", s.Unit)
	fmt.Fprintf(r.out, "  precision %g\n", s.Precision)
	if s.HasRange() {
		fmt.Fprintf(r.out, "  range     [%g, %g]\n", s.RangeMin, s.RangeMax)
	} else {
		fmt.Fprintf(r.out, "  range     unbounded\n")
	}
	if s.HasMaxStep() {
		fmt.Fprintf(r.out, "  max-step  %g\n", s.MaxStep)
	} else {
		fmt.Fprintf(r.out, "  max-step  off\n")
	}
	fmt.Fprintf(r.out, "  start     %g\n", s.StartPos)
	return nil
}

func (r *REPL) setField(args []string) error {
	if len(args) != 3 {
		return usage("set <column> <conv|unit|precision|range-min|range-max|max-step|start> <value>")
	}
	col, field, value := args[0], args[1], args[2]

	s, err := r.sess.GetSettings(col)
	if err != nil {
		return err
	}

	if field == "unit" {
		s.Unit = value
	} else {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.NewParse("set", 0, field, value)
		}
		switch field {
		case "conv":
			s.ConversionRate = v
		case "precision":
			s.Precision = v
		case "range-min":
			s.RangeMin = v
		case "range-max":
			s.RangeMax = v
		case "max-step":
			s.MaxStep = v
		case "start":
			s.StartPos = v
		default:
			return usage("set <column> <conv|unit|precision|range-min|range-max|max-step|start> <value>")
		}
	}

	_, err = r.sess.PutSettings(col, s)
	return err
}

func (r *REPL) swap(args []string) error {
	if len(args) != 2 {
		return usage("swap <a> <b>")
	}
	return r.sess.SwapColumns(args[0], args[1])
}

// parseAxes turns "x y [z] [color] [drop]" into a render request.
func parseAxes(args []string) (session.RenderRequest, error) {
	if len(args) < 2 {
		return session.RenderRequest{}, usage("<x> <y> [z] [color] [drop]")
	}
	req := session.RenderRequest{X: args[0], Y: args[1]}
	for _, a := range args[2:] {
		switch a {
		case "color":
			req.ZAsColor = true
		case "drop":
			req.Policy = transform.RangeDropLeading
		default:
			if req.UseZ {
				return session.RenderRequest{}, usage("<x> <y> [z] [color] [drop]")
			}
			req.Z = a
			req.UseZ = true
		}
	}
	if req.ZAsColor && !req.UseZ {
		return session.RenderRequest{}, errors.NewFormat("", "color requires a z column")
	}
	return req, nil
}

func (r *REPL) render(args []string) error {
	req, err := parseAxes(args)
	if err != nil {
		return err
	}
	res, err := r.sess.Render(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s vs %s: %s points (%s)\n",
		res.Y.Label(), res.X.Label(), humanize.Comma(int64(res.Y.Len())), res.Kind)
	return nil
}

func (r *REPL) snapshot(args []string) error {
	if len(args) < 3 {
		return usage("snapshot <file> <x> <y> [z] [color]")
	}
	path := args[0]
	req, err := parseAxes(args[1:])
	if err != nil {
		return err
	}
	req.Title = strings.TrimSuffix(strings.TrimSuffix(path, ".parquet"), ".PARQUET")
	if err := r.sess.SaveSnapshot(path, req); err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "froze %s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	return nil
}

func (r *REPL) open(args []string) error {
	if len(args) != 1 {
		return usage("open <file>")
	}
	snap, err := r.sess.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s: %s vs %s, %s points (%s)\n",
		snap.Title, snap.Y.Name, snap.X.Name,
		humanize.Comma(int64(snap.Len())), snap.Kind)
	return nil
}

func (r *REPL) stats(args []string) error {
	if len(args) != 1 {
		return usage("stats <column>")
	}
	st, err := r.sess.SeriesStats(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s: n=%s min=%g max=%g mean=%g stddev=%g p50=%g p90=%g p95=%g p99=%g\n",
		args[0], humanize.Comma(int64(st.Count)),
		st.Min, st.Max, st.Mean, st.StdDev, st.P50, st.P90, st.P95, st.P99)
	return nil
}

func (r *REPL) trend(args []string) error {
	if len(args) < 2 {
		return usage("trend <column> <linear|poly N|avg N|log>")
	}
	res, err := r.sess.Render(session.RenderRequest{
		X: "Time", Y: args[0], Policy: transform.RangeClamp,
	})
	if err != nil {
		return err
	}

	kind := transform.TrendLinear
	degree, window := 1, 0
	switch args[1] {
	case "linear":
	case "log":
		kind = transform.TrendLogarithmic
	case "poly":
		if len(args) < 3 {
			return usage("trend <column> poly <degree>")
		}
		kind = transform.TrendPolynomial
		if degree, err = strconv.Atoi(args[2]); err != nil {
			return errors.NewParse("trend", 0, "degree", args[2])
		}
	case "avg":
		if len(args) < 3 {
			return usage("trend <column> avg <window>")
		}
		kind = transform.TrendMovingAverage
		if window, err = strconv.Atoi(args[2]); err != nil {
			return errors.NewParse("trend", 0, "window", args[2])
		}
	default:
		return usage("trend <column> <linear|poly N|avg N|log>")
	}

	tr, err := transform.Fit(res.Y, kind, degree, window)
	if err != nil {
		return err
	}
	if tr.Coeffs != nil {
		fmt.Fprintf(r.out, "%s coefficients (ascending degree): %v\n", args[1], tr.Coeffs)
	} else {
		fmt.Fprintf(r.out, "moving average over %d samples, %s points\n", window, humanize.Comma(int64(len(tr.Values))))
	}
	return nil
}

func (r *REPL) preset(args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		presets, err := r.sess.ListPresets()
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			fmt.Fprintln(r.out, "no presets")
			return nil
		}
		for _, p := range presets {
			line := fmt.Sprintf("  %-16s %s vs %s", p.Name, p.Y, p.X)
			if p.UseZ {
				line += " / " + p.Z
				if p.ZAsColor {
					line += " (color)"
				}
			}
			fmt.Fprintln(r.out, line)
		}
		return nil
	case "save":
		if len(args) < 4 {
			return usage("preset save <name> <x> <y> [z] [color]")
		}
		req, err := parseAxes(args[2:])
		if err != nil {
			return err
		}
		return r.sess.SavePreset(persist.Preset{
			Name: args[1], X: req.X, Y: req.Y, Z: req.Z,
			UseZ: req.UseZ, ZAsColor: req.ZAsColor,
		})
	case "use":
		if len(args) != 2 {
			return usage("preset use <name>")
		}
		req, err := r.sess.SelectPreset(args[1])
		if err != nil {
			return err
		}
		res, err := r.sess.Render(req)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s: %s vs %s, %s points\n",
			req.Title, res.Y.Label(), res.X.Label(), humanize.Comma(int64(res.Y.Len())))
		return nil
	case "rm":
		if len(args) != 2 {
			return usage("preset rm <name>")
		}
		return r.sess.DeletePreset(args[1])
	default:
		return usage("preset list|save|use|rm")
	}
}

func (r *REPL) export(args []string) error {
	if len(args) != 1 {
		return usage("export <file>")
	}
	if err := r.sess.ExportParquet(args[0]); err != nil {
		return err
	}
	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported %s (%s)\n", args[0], humanize.Bytes(uint64(st.Size())))
	return nil
}

func (r *REPL) query(args []string) error {
	if len(args) < 2 {
		return usage("query <file> <column> [start end]")
	}
	q := query.ColumnQuery{Path: args[0], Column: args[1], Limit: 10}
	if len(args) >= 4 {
		start, err1 := strconv.ParseFloat(args[2], 64)
		end, err2 := strconv.ParseFloat(args[3], 64)
		if err1 != nil || err2 != nil {
			return usage("query <file> <column> [start end]")
		}
		q.Start, q.End = start, end
	}

	svc, err := query.New()
	if err != nil {
		return err
	}
	defer svc.Close()

	samples, err := svc.SelectColumn(context.Background(), q)
	if err != nil {
		return err
	}
	for _, s := range samples {
		fmt.Fprintf(r.out, "  %g\t%g\n", s.Time, s.Value)
	}
	fmt.Fprintf(r.out, "%s rows\n", humanize.Comma(int64(len(samples))))
	return nil
}

func (r *REPL) dirty() error {
	d := r.sess.Dirty()
	fmt.Fprintf(r.out, "data: %s  settings: %s\n", dirtyWord(d.Data), dirtyWord(d.Settings))
	return nil
}

func dirtyWord(b bool) string {
	if b {
		return "unsaved"
	}
	return "clean"
}
