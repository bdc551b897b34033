package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wehmoen/ronin-wally/internal/stats"
)

const wantAddress = "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706"

func TestPromptAddressAcceptsFirstValid(t *testing.T) {
	in := strings.NewReader("ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a706\n")
	var out bytes.Buffer

	address, err := promptAddress(in, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if address != wantAddress {
		t.Errorf("address = %q, want %q", address, wantAddress)
	}
	if strings.Contains(out.String(), "Failed to parse") {
		t.Errorf("unexpected reprompt:\n%s", out.String())
	}
}

func TestPromptAddressRepromptsUntilValid(t *testing.T) {
	in := strings.NewReader("not-an-address\nronin:tooshort\n" + wantAddress + "\n")
	var out bytes.Buffer

	address, err := promptAddress(in, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if address != wantAddress {
		t.Errorf("address = %q, want %q", address, wantAddress)
	}

	if got := strings.Count(out.String(), "Failed to parse your address!"); got != 2 {
		t.Errorf("reprompted %d times, want 2:\n%s", got, out.String())
	}
	if got := strings.Count(out.String(), "Please enter your Ronin address"); got != 3 {
		t.Errorf("prompted %d times, want 3:\n%s", got, out.String())
	}
}

func TestPromptAddressEOF(t *testing.T) {
	in := strings.NewReader("garbage\n")
	if _, err := promptAddress(in, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error when input ends without a valid address")
	}
}

func TestWorstStatus(t *testing.T) {
	slow := stats.EndpointStats{
		Endpoint: "listSentTransactions",
		Calls:    10,
		Latency:  stats.TailLatency{P95: time.Second},
	}
	down := stats.EndpointStats{
		Endpoint: "getTransaction",
		Calls:    10,
		Failures: 8,
	}

	if got := worstStatus([]stats.EndpointStats{slow}); got != stats.StatusSlow {
		t.Errorf("worstStatus = %s, want SLOW", got)
	}
	if got := worstStatus([]stats.EndpointStats{slow, down}); got != stats.StatusDown {
		t.Errorf("worstStatus = %s, want DOWN", got)
	}
	if got := worstStatus(nil); got != stats.StatusUp {
		t.Errorf("worstStatus of nothing = %s, want UP", got)
	}
}
