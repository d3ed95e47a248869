package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/lino"
	"pkt.systems/version"
)

const watchDebounce = 100 * time.Millisecond

func init() {
	version.SetDefaultModule("pkt.systems/lino")
}

type options struct {
	lessParens   bool
	indentString string
	indentValues int
	indentLength int
	widthFlag    int
	preferInline bool
	group        bool
	tokenize     bool
	compact      bool
	maxDepth     int
	maxSize      int
	multiRef     bool
	outPath      string
	watch        bool
	showVersion  bool
}

func main() {
	var opts options

	flags := pflag.NewFlagSet("lino", pflag.ExitOnError)
	flags.BoolVarP(&opts.lessParens, "less-parens", "l", false, "Omit redundant outer parentheses")
	flags.StringVar(&opts.indentString, "indent-string", "  ", "Indentation prefix for block layout")
	flags.IntVar(&opts.indentValues, "indent-values", 0, "Switch to block layout at this many values (0 disables)")
	flags.IntVar(&opts.indentLength, "indent-length", 0, "Switch to block layout past this line width (0 disables)")
	flags.IntVarP(&opts.widthFlag, "width", "w", 0, "Line width for block layout (0 uses terminal width if available)")
	flags.BoolVar(&opts.preferInline, "prefer-inline", false, "Keep links on one line even past thresholds")
	flags.BoolVarP(&opts.group, "group", "g", false, "Merge consecutive links sharing an identity")
	flags.BoolVarP(&opts.tokenize, "tokenize", "t", false, "Separate punctuation and math glyphs before parsing")
	flags.BoolVarP(&opts.compact, "compact", "c", false, "Remove spaces around glyphs in the output")
	flags.IntVar(&opts.maxDepth, "max-depth", lino.DefaultMaxDepth, "Maximum nesting depth")
	flags.IntVar(&opts.maxSize, "max-size", lino.DefaultMaxInputSize, "Maximum input size in bytes")
	flags.BoolVar(&opts.multiRef, "multi-ref", true, "Recognize multi-word references in value lists")
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&opts.watch, "watch", false, "Re-run when input files change")
	flags.BoolVarP(&opts.showVersion, "version", "V", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: lino [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nInputs are files or URLs; with no input, notation is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Fprintln(os.Stdout, version.Module(), version.Current())
		return
	}

	args := flags.Args()

	if opts.watch {
		if err := watchInputs(args, opts); err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(args, opts); err != nil {
		fmt.Fprintf(os.Stderr, "lino: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(args []string, opts options) error {
	reader, closer, err := openInputs(args)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	output, err := process(string(input), opts)
	if err != nil {
		return err
	}

	writer, closeOut, err := resolveOutput(opts.outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	_, err = io.WriteString(writer, output)
	return err
}

// process runs the full pipeline: optional tokenization, parse, format,
// optional compaction.
func process(input string, opts options) (string, error) {
	if opts.tokenize {
		input = lino.NewTokenizer().Tokenize(input)
	}

	parser := lino.NewParser(
		lino.WithMaxInputSize(opts.maxSize),
		lino.WithMaxDepth(opts.maxDepth),
		lino.WithMultiRefContext(opts.multiRef),
	)
	links, err := parser.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}

	lineLength := opts.indentLength
	if lineLength == 0 && opts.widthFlag != 0 {
		lineLength = opts.widthFlag
	}
	if lineLength == 0 && opts.widthFlag == 0 && opts.indentValues == 0 {
		// No explicit layout policy; fall back to terminal width when
		// writing to a TTY so long links wrap into block form.
		if opts.outPath == "" && term.IsTerminal(int(os.Stdout.Fd())) {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				lineLength = w
			}
		}
	}

	output := lino.Format(links,
		lino.WithLessParentheses(opts.lessParens),
		lino.WithIndentString(opts.indentString),
		lino.WithPreferInline(opts.preferInline),
		lino.WithIndentByValueCount(opts.indentValues),
		lino.WithIndentByLineLength(lineLength),
		lino.WithGroupConsecutive(opts.group),
	)
	if output != "" {
		output += "\n"
	}

	if opts.compact {
		output = lino.NewTokenizer().Compact(output)
	}
	return output, nil
}

// watchInputs re-runs the pipeline whenever one of the input files
// changes. Watch mode needs local file inputs.
func watchInputs(args []string, opts options) error {
	if len(args) == 0 {
		return fmt.Errorf("watch mode requires file inputs")
	}
	for _, arg := range args {
		if u, err := url.Parse(arg); err == nil && u.Scheme != "" && u.Scheme != "file" {
			return fmt.Errorf("cannot watch %q: not a local file", arg)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directories so editors that replace files on
	// save (rename + create) are still observed.
	watched := make(map[string]bool)
	for _, arg := range args {
		dir := filepath.Dir(normalizePath(arg))
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}

	targets := make(map[string]bool, len(args))
	for _, arg := range args {
		targets[normalizePath(arg)] = true
	}

	if err := runOnce(args, opts); err != nil {
		fmt.Fprintf(os.Stderr, "lino: %v\n", err)
	}

	var timer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[normalizePath(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				if err := runOnce(args, opts); err != nil {
					fmt.Fprintf(os.Stderr, "lino: %v\n", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		}
	}
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	sep       bool
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.sep {
				// Separate concatenated documents so the last line of
				// one input and the first of the next stay distinct.
				m.sep = false
				m.cur = strings.NewReader("\n")
			} else {
				if m.idx >= len(m.sources) {
					m.closed = true
					return 0, io.EOF
				}
				reader, closer, err := m.sources[m.idx].open()
				if err != nil {
					return 0, err
				}
				m.cur = reader
				m.curCloser = closer
				m.idx++
				m.sep = m.idx < len(m.sources)
			}
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	return &multiInputReader{sources: sources}, nil, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
