package main

import (
	"strings"
	"testing"
)

func TestSummarizeRejectsUnparsableArgument(t *testing.T) {
	configPath, _ := writeTestConfig(t, "")

	_, _, err := runCLI(t, configPath, "summarize", "not-a-video")
	if err == nil {
		t.Fatal("expected an error for an argument without a BV id")
	}
	if !strings.Contains(err.Error(), "not-a-video") {
		t.Fatalf("error should name the offending argument, got %v", err)
	}
}

func TestParseVideoArgs(t *testing.T) {
	bvids, err := parseVideoArgs([]string{
		"BV1xx411c7mD",
		"https://www.bilibili.com/video/BV1GJ411x7h7?p=2",
		"BV1xx411c7mD",
	})
	if err != nil {
		t.Fatalf("parseVideoArgs: %v", err)
	}
	if len(bvids) != 2 {
		t.Fatalf("expected duplicates dropped, got %v", bvids)
	}
	if bvids[0] != "BV1xx411c7mD" || bvids[1] != "BV1GJ411x7h7" {
		t.Fatalf("unexpected ids %v", bvids)
	}
}

func TestBuildRequestsCarriesFlags(t *testing.T) {
	reqs := buildRequests([]string{"BV1xx411c7mD"}, "favorites", true, nil)
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Category != "favorites" || !req.Overwrite || req.BVID != "BV1xx411c7mD" {
		t.Fatalf("unexpected request %+v", req)
	}
}
