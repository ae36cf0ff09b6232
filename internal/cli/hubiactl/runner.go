// Package hubiactl implements the one-shot terminal client for the HTTP
// API: ask a question, translate it to SQL without executing, or inspect
// the catalog.
package hubiactl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("hubia", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "HuB-IA API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 2*time.Minute), "HTTP timeout (e.g. 90s)")
	rawJSON := fs.Bool("json", false, "print the raw JSON response")
	showSQL := fs.Bool("show-sql", false, "also print the executed SQL")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	endpoint := strings.TrimRight(*baseURL, "/")

	var (
		code int
		body []byte
		err  error
	)
	switch command {
	case "ask", "translate":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "a question is required")
			writeUsage(stderr)
			return 2
		}
		code, body, err = doPost(ctx, client, endpoint+"/v1/"+command, question)
	case "tables":
		code, body, err = doGet(ctx, client, endpoint+"/v1/tables")
	case "health":
		code, body, err = doGet(ctx, client, endpoint+"/v1/health")
	case "ready":
		code, body, err = doGet(ctx, client, endpoint+"/v1/ready")
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		if message, ok := errorMessage(body); ok {
			_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, message)
		} else {
			_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		}
		return 1
	}

	if *rawJSON {
		if pretty, ok := prettyJSON(body); ok {
			_, _ = fmt.Fprintln(stdout, pretty)
			return 0
		}
		_, _ = fmt.Fprintln(stdout, string(body))
		return 0
	}

	switch command {
	case "ask":
		printAsk(stdout, body, *showSQL)
	case "translate":
		printField(stdout, body, "sql")
	default:
		if pretty, ok := prettyJSON(body); ok {
			_, _ = fmt.Fprintln(stdout, pretty)
		} else if len(body) > 0 {
			_, _ = fmt.Fprintln(stdout, string(body))
		}
	}
	return 0
}

func doGet(ctx context.Context, client *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	return send(client, req)
}

func doPost(ctx context.Context, client *http.Client, url, question string) (int, []byte, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return send(client, req)
}

func send(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func printAsk(stdout io.Writer, body []byte, showSQL bool) {
	var parsed struct {
		Interpretation string `json:"interpretation"`
		SQL            string `json:"sql"`
		FromCache      bool   `json:"from_cache"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		_, _ = fmt.Fprintln(stdout, string(body))
		return
	}
	_, _ = fmt.Fprintln(stdout, parsed.Interpretation)
	if showSQL && parsed.SQL != "" {
		_, _ = fmt.Fprintf(stdout, "\nSQL: %s\n", parsed.SQL)
	}
	if parsed.FromCache {
		_, _ = fmt.Fprintln(stdout, "(resposta em cache)")
	}
}

func printField(stdout io.Writer, body []byte, field string) {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		_, _ = fmt.Fprintln(stdout, string(body))
		return
	}
	if value, ok := parsed[field].(string); ok {
		_, _ = fmt.Fprintln(stdout, value)
		return
	}
	_, _ = fmt.Fprintln(stdout, string(body))
}

func errorMessage(raw []byte) (string, bool) {
	var parsed struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.ErrorCode == "" {
		return "", false
	}
	return fmt.Sprintf("%s: %s", parsed.ErrorCode, parsed.Message), true
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: hubia [flags] <command> [question]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  ask <question>        POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  translate <question>  POST /v1/translate")
	_, _ = fmt.Fprintln(w, "  tables                GET /v1/tables")
	_, _ = fmt.Fprintln(w, "  health                GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                 GET /v1/ready")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
