package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
	"github.com/tutu-network/coinquest/internal/security"
)

func TestParseMeta(t *testing.T) {
	meta, err := parseMeta([]string{"amount=12.5", "category=food", "isIncome=false", "note=a=b"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Float("amount") != 12.5 {
		t.Errorf("expected amount 12.5, got %v", meta["amount"])
	}
	if meta.String("category") != "food" {
		t.Errorf("expected category food, got %v", meta["category"])
	}
	if v, ok := meta["isIncome"].(bool); !ok || v {
		t.Errorf("expected isIncome false, got %v", meta["isIncome"])
	}
	if meta.String("note") != "a=b" {
		t.Errorf("expected note a=b, got %v", meta["note"])
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseMeta([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[" + strings.Repeat(".", barWidth) + "]   0%"},
		{100, "[" + strings.Repeat("=", barWidth) + "] 100%"},
		{150, "[" + strings.Repeat("=", barWidth) + "] 100%"},
		{50, "[" + strings.Repeat("=", 14) + ">" + strings.Repeat(".", 15) + "]  50%"},
	}
	for _, tt := range tests {
		if got := renderBar(tt.pct); got != tt.want {
			t.Errorf("renderBar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestUntilString(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		deadline time.Time
		want     string
	}{
		{now.Add(-time.Minute), "expired"},
		{now.Add(30 * time.Minute), "30m"},
		{now.Add(12 * time.Hour), "12h"},
		{now.Add(72 * time.Hour), "3d"},
	}
	for _, tt := range tests {
		if got := untilString(tt.deadline, now); got != tt.want {
			t.Errorf("untilString(%v) = %q, want %q", tt.deadline.Sub(now), got, tt.want)
		}
	}
}

func TestParseMeta_NumbersAreNotBools(t *testing.T) {
	meta, err := parseMeta([]string{"consecutiveMonths=1", "compliant=true"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := meta["consecutiveMonths"].(float64); !ok {
		t.Errorf("expected 1 to parse as a number, got %T", meta["consecutiveMonths"])
	}
	if !meta.Bool("compliant") {
		t.Error("expected compliant=true")
	}
}

func TestVerifyImport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("COINQUEST_HOME", home)

	blob := []byte(`{"xp":10}`)
	path := filepath.Join(t.TempDir(), "profile.json")
	os.WriteFile(path, blob, 0600)

	if err := verifyImport(path, blob); err == nil {
		t.Error("expected error without a signature file")
	}

	kp, err := security.LoadOrCreateKeypair(home)
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(security.SignaturePath(path), []byte(kp.SignExport(blob)), 0644)

	if err := verifyImport(path, blob); err != nil {
		t.Errorf("signed export rejected: %v", err)
	}
	if err := verifyImport(path, []byte(`{"xp":1000000}`)); err == nil {
		t.Error("edited export accepted")
	}
}

func TestRunRewardUnlock(t *testing.T) {
	t.Setenv("COINQUEST_HOME", t.TempDir())

	if err := runRewardUnlock(rewardUnlockCmd, []string{"no_such_reward"}); !errors.Is(err, domain.ErrRewardNotFound) {
		t.Errorf("expected ErrRewardNotFound, got %v", err)
	}
	id := engagement.AllRewards()[0].ID
	if err := runRewardUnlock(rewardUnlockCmd, []string{id}); err != nil {
		t.Errorf("unlock %s: %v", id, err)
	}
}
