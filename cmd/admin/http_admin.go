package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// adminCall sends one request to a running server's loopback admin API and
// prints the pretty JSON reply. Non-2xx replies exit 1.
func adminCall(name, method, path string, timeout time.Duration, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	endpoint := strings.TrimRight(strings.TrimSpace(*server), "/") + path
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		fail("build request", err)
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		fail(method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out bytes.Buffer
	if json.Indent(&out, body, "", "  ") != nil {
		out.Reset()
		out.Write(bytes.TrimSpace(body))
	}
	fmt.Println(out.String())
	if resp.StatusCode/100 != 2 {
		fmt.Fprintln(os.Stderr, "status:", resp.Status)
		os.Exit(1)
	}
}

func stateCmd(args []string) {
	adminCall("state", http.MethodGet, "/admin/v1/state", 5*time.Second, args)
}

// snapshotCmd asks the server to snapshot its tip; the write happens in the
// background.
func snapshotCmd(args []string) {
	adminCall("snapshot", http.MethodPost, "/admin/v1/snapshot", 10*time.Second, args)
}
