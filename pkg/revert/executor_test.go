package revert

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sdejongh/dedupnorris/pkg/action"
	"github.com/sdejongh/dedupnorris/pkg/audit"
	"github.com/sdejongh/dedupnorris/pkg/folders"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
	"github.com/spf13/afero"
)

func p(path string) string {
	return filepath.FromSlash(path)
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	fsys.MkdirAll(filepath.Dir(p(path)), 0755)
	if err := afero.WriteFile(fsys, p(path), []byte(content), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
}

func writeLog(t *testing.T, backend storage.Backend, path string, records []audit.Record) {
	t.Helper()
	if err := audit.NewWriter(backend).Write(context.Background(), p(path), records, true); err != nil {
		t.Fatalf("failed to write audit log: %v", err)
	}
}

func content(fsys afero.Fs, path string) string {
	data, err := afero.ReadFile(fsys, p(path))
	if err != nil {
		return ""
	}
	return string(data)
}

func TestMoveThenRestoreRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	backend := storage.NewLocalFs(fsys)
	ctx := context.Background()

	writeFile(t, fsys, "/in/a.jpg", "same")
	writeFile(t, fsys, "/in/sub/été.jpg", "same")

	inputs := folders.Resolved{p("/in")}
	exec, err := action.NewExecutor(backend, models.ActionMove, inputs, p("/out/Duplicates/Duplicates_T"), nil)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	res, err := exec.Apply(ctx, []*models.PrincipalChoice{{
		Set:        &models.DuplicateSet{Size: 4, Paths: []string{p("/in/a.jpg"), p("/in/sub/été.jpg")}},
		Principal:  p("/in/a.jpg"),
		Duplicates: []string{p("/in/sub/été.jpg")},
		Reason:     "r",
	}})
	if err != nil || res.Moved != 1 {
		t.Fatalf("Apply() moved %d, error = %v", res.Moved, err)
	}

	// The reviewer marks the row for restoration
	res.Records[0].Action = string(models.ReversalRestore)
	writeLog(t, backend, "/out/Duplicates/Duplicates_T.csv", res.Records)

	report, err := NewExecutor(backend, nil).Run(ctx, p("/out/Duplicates/Duplicates_T.csv"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Restored != 1 {
		t.Errorf("Restored = %d, want 1", report.Restored)
	}
	if content(fsys, "/in/sub/été.jpg") != "same" {
		t.Error("duplicate should be back at its original path")
	}
	if content(fsys, "/in/a.jpg") != "same" {
		t.Error("principal must not be touched by restore")
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}

	t.Run("ReplayIsHarmless", func(t *testing.T) {
		report, err := NewExecutor(backend, nil).Run(ctx, p("/out/Duplicates/Duplicates_T.csv"))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.Restored != 0 || report.Failed != 1 {
			t.Errorf("Restored = %d, Failed = %d, want 0 and 1", report.Restored, report.Failed)
		}
		if report.Status != models.StatusPartial {
			t.Errorf("Status = %s, want partial", report.Status)
		}
		if content(fsys, "/in/sub/été.jpg") != "same" {
			t.Error("restored file must survive a replay")
		}
	})
}

func TestRunDirectives(t *testing.T) {
	fsys := afero.NewMemMapFs()
	backend := storage.NewLocalFs(fsys)
	ctx := context.Background()

	writeFile(t, fsys, "/in/p1.jpg", "principal")
	writeFile(t, fsys, "/q/in/d1.jpg", "quarantined")
	writeFile(t, fsys, "/in/p2.jpg", "principal2")
	writeFile(t, fsys, "/q/in/d2.jpg", "quarantined2")
	writeFile(t, fsys, "/in/d2.jpg", "stale")
	writeFile(t, fsys, "/q/in/d3.jpg", "purge")
	writeFile(t, fsys, "/in/d4.jpg", "listed")
	writeFile(t, fsys, "/q/in/d5.jpg", "untouched")

	writeLog(t, backend, "/log.csv", []audit.Record{
		{NumDuplicates: 1, Principal: p("/in/p1.jpg"), Duplicate: p("/in/d1.jpg"), Action: "replace_duplicate", Destination: p("/q/in/d1.jpg")},
		{NumDuplicates: 1, Principal: p("/in/p2.jpg"), Duplicate: p("/in/d2.jpg"), Action: "restore_duplicate", Destination: p("/q/in/d2.jpg")},
		{NumDuplicates: 1, Principal: p("/in/p1.jpg"), Duplicate: p("/in/d3.jpg"), Action: "remove_duplicate", Destination: p("/q/in/d3.jpg")},
		{NumDuplicates: 1, Principal: p("/in/p1.jpg"), Duplicate: p("/in/d4.jpg"), Action: "remove_duplicate"},
		{NumDuplicates: 1, Principal: p("/in/p1.jpg"), Duplicate: p("/in/d5.jpg"), Action: "move", Destination: p("/q/in/d5.jpg")},
		{NumDuplicates: 1, Principal: p("/in/p1.jpg"), Duplicate: p("/in/d6.jpg"), Action: ""},
	})

	report, err := NewExecutor(backend, nil).Run(ctx, p("/log.csv"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	t.Run("Replace", func(t *testing.T) {
		if content(fsys, "/in/d1.jpg") != "quarantined" {
			t.Error("duplicate should be restored over its original path")
		}
		if content(fsys, "/in/p1.jpg") != "" {
			t.Error("replace should remove the principal")
		}
	})

	t.Run("RestoreDoesNotOverwrite", func(t *testing.T) {
		if content(fsys, "/in/d2.jpg") != "stale" {
			t.Error("restore must not overwrite an existing file")
		}
		if content(fsys, "/q/in/d2.jpg") != "quarantined2" {
			t.Error("quarantined file should stay when restore fails")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if content(fsys, "/q/in/d3.jpg") != "" {
			t.Error("remove should delete the quarantined copy")
		}
		if content(fsys, "/in/d4.jpg") != "" {
			t.Error("remove without destination should delete the original path")
		}
	})

	t.Run("Counts", func(t *testing.T) {
		if report.Replaced != 1 || report.Restored != 0 || report.Removed != 2 {
			t.Errorf("Replaced/Restored/Removed = %d/%d/%d, want 1/0/2", report.Replaced, report.Restored, report.Removed)
		}
		if report.Skipped != 2 {
			t.Errorf("Skipped = %d, want 2", report.Skipped)
		}
		if report.Failed != 1 {
			t.Errorf("Failed = %d, want 1", report.Failed)
		}
		if content(fsys, "/q/in/d5.jpg") != "untouched" {
			t.Error("rows without a directive must be left alone")
		}
	})
}

func TestRunReplaceSharedPrincipal(t *testing.T) {
	fsys := afero.NewMemMapFs()
	backend := storage.NewLocalFs(fsys)

	writeFile(t, fsys, "/in/p.jpg", "principal")
	writeFile(t, fsys, "/q/in/d1.jpg", "x")
	writeFile(t, fsys, "/q/in/d2.jpg", "x")

	writeLog(t, backend, "/log.csv", []audit.Record{
		{NumDuplicates: 2, Principal: p("/in/p.jpg"), Duplicate: p("/in/d1.jpg"), Action: "replace_duplicate", Destination: p("/q/in/d1.jpg")},
		{NumDuplicates: 2, Principal: p("/in/p.jpg"), Duplicate: p("/in/d2.jpg"), Action: "replace_duplicate", Destination: p("/q/in/d2.jpg")},
	})

	report, err := NewExecutor(backend, nil).Run(context.Background(), p("/log.csv"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Replaced != 2 || report.Failed != 0 {
		t.Errorf("Replaced/Failed = %d/%d, want 2/0 (errors: %v)", report.Replaced, report.Failed, report.Errors)
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}
	for _, path := range []string{"/in/d1.jpg", "/in/d2.jpg"} {
		if content(fsys, path) != "x" {
			t.Errorf("%s should be restored", path)
		}
	}
	if content(fsys, "/in/p.jpg") != "" {
		t.Error("shared principal should be removed")
	}
}

func TestRunRowsWithoutDestination(t *testing.T) {
	tests := []struct {
		name          string
		action        string
		duplicate     bool // duplicate still at its original path
		wantFailed    int
		wantPrincipal bool
	}{
		{"ReplaceListed", "replace_duplicate", true, 0, false},
		{"RestoreListed", "restore_duplicate", true, 0, true},
		{"ReplaceRemoved", "replace_duplicate", false, 1, true},
		{"RestoreRemoved", "restore_duplicate", false, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			backend := storage.NewLocalFs(fsys)

			writeFile(t, fsys, "/in/p.jpg", "principal")
			if tt.duplicate {
				writeFile(t, fsys, "/in/d.jpg", "principal")
			}
			writeLog(t, backend, "/log.csv", []audit.Record{
				{NumDuplicates: 1, Principal: p("/in/p.jpg"), Duplicate: p("/in/d.jpg"), Action: tt.action},
			})

			report, err := NewExecutor(backend, nil).Run(context.Background(), p("/log.csv"))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.Failed != tt.wantFailed {
				t.Errorf("Failed = %d, want %d", report.Failed, tt.wantFailed)
			}
			if got := content(fsys, "/in/p.jpg") != ""; got != tt.wantPrincipal {
				t.Errorf("principal present = %v, want %v", got, tt.wantPrincipal)
			}
			if tt.duplicate && content(fsys, "/in/d.jpg") == "" {
				t.Error("duplicate should stay in place")
			}
		})
	}
}

func TestRunMissingLog(t *testing.T) {
	backend := storage.NewLocalFs(afero.NewMemMapFs())
	report, err := NewExecutor(backend, nil).Run(context.Background(), p("/nope.csv"))
	if err == nil {
		t.Fatal("Run() should fail when the audit log cannot be read")
	}
	if report.Status != models.StatusFailed {
		t.Errorf("Status = %s, want failed", report.Status)
	}
}
