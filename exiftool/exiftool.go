package exiftool

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"bandfix/logger"
)

// Tool is the metadata collaborator the corrector depends on: read the
// current values of named tags, or overwrite named tags in place.
type Tool interface {
	ReadTags(path string, tags ...string) (map[string]string, error)
	WriteTags(path string, values map[string]string) error
	Close() error
}

// Check verifies that the exiftool binary is available before any file
// is touched.
func Check() error {
	if _, err := exec.LookPath("exiftool"); err != nil {
		return fmt.Errorf("exiftool not found in PATH: %v", err)
	}
	out, err := exec.Command("exiftool", "-ver").Output()
	if err != nil {
		return fmt.Errorf("exiftool -ver failed: %v", err)
	}
	logger.Debugf("exiftool version %s", strings.TrimSpace(string(out)))
	return nil
}

// Process wraps a persistent exiftool child in stay-open mode so a batch
// run pays the interpreter startup cost once, not once per file.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	mu     sync.Mutex
	errMu  sync.Mutex
	stderr []string
}

// Start launches exiftool reading command arguments from stdin.
func Start() (*Process, error) {
	cmd := exec.Command("exiftool", "-stay_open", "True", "-@", "-")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %v", err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			p.errMu.Lock()
			p.stderr = append(p.stderr, line)
			p.errMu.Unlock()
		}
	}()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting exiftool: %v", err)
	}
	return p, nil
}

// execute sends one command to the running process and reads output up
// to the {ready} marker. Serialized; one Process serves one worker.
func (p *Process) execute(args ...string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.takeStderr()
	for _, arg := range args {
		if _, err := fmt.Fprintln(p.stdin, arg); err != nil {
			return "", "", fmt.Errorf("writing arg %q: %v", arg, err)
		}
	}
	if _, err := fmt.Fprintln(p.stdin, "-execute"); err != nil {
		return "", "", fmt.Errorf("writing execute: %v", err)
	}

	var output strings.Builder
	for p.stdout.Scan() {
		line := p.stdout.Text()
		if strings.HasPrefix(line, "{ready}") {
			break
		}
		output.WriteString(line)
		output.WriteString("\n")
	}
	if err := p.stdout.Err(); err != nil {
		return "", "", fmt.Errorf("reading output: %v", err)
	}
	return output.String(), strings.Join(p.takeStderr(), "\n"), nil
}

func (p *Process) takeStderr() []string {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	lines := p.stderr
	p.stderr = nil
	return lines
}

// ReadTags returns the current values of the named tags for one file.
// Tags absent from the file are absent from the result map. Numeric
// tags are reported unconverted (-n) so comparisons are stable across
// exiftool print conventions.
func (p *Process) ReadTags(path string, tags ...string) (map[string]string, error) {
	args := make([]string, 0, len(tags)+3)
	args = append(args, "-j", "-n")
	for _, tag := range tags {
		args = append(args, "-"+tag)
	}
	args = append(args, path)

	out, errOut, err := p.execute(args...)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("exiftool returned no output for %s: %s", path, strings.TrimSpace(errOut))
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		return nil, fmt.Errorf("decoding exiftool output for %s: %v", path, err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("exiftool output empty for %s", path)
	}

	values := make(map[string]string, len(tags))
	for _, tag := range tags {
		if v, ok := decoded[0][tag]; ok && v != nil {
			values[tag] = fmt.Sprint(v)
		}
	}
	return values, nil
}

// WriteTags overwrites the named tags in place, without a backup copy.
// The tool's diagnostic is returned verbatim on failure.
func (p *Process) WriteTags(path string, values map[string]string) error {
	tags := make([]string, 0, len(values))
	for tag := range values {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	args := make([]string, 0, len(values)+2)
	args = append(args, "-overwrite_original")
	for _, tag := range tags {
		args = append(args, fmt.Sprintf("-%s=%s", tag, values[tag]))
	}
	args = append(args, path)

	out, errOut, err := p.execute(args...)
	if err != nil {
		return err
	}
	if !strings.Contains(out, "1 image files updated") {
		diag := strings.TrimSpace(errOut)
		if diag == "" {
			diag = strings.TrimSpace(out)
		}
		return fmt.Errorf("exiftool did not update %s: %s", path, diag)
	}
	return nil
}

// Close shuts the stay-open process down gracefully.
func (p *Process) Close() error {
	if _, err := fmt.Fprintln(p.stdin, "-stay_open"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(p.stdin, "False"); err != nil {
		return err
	}
	if err := p.stdin.Close(); err != nil {
		return err
	}
	return p.cmd.Wait()
}
