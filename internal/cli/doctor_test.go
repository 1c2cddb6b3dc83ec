package cli

import (
	"fmt"
	"testing"

	"github.com/ksyq12/webhostinit/internal/executor"
)

func TestCheckCommands(t *testing.T) {
	t.Run("all tools present", func(t *testing.T) {
		mock := &executor.Mock{}

		results := checkCommands(mock)
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for _, r := range results {
			if r.Status != "ok" {
				t.Errorf("unexpected status %s: %s", r.Status, r.Message)
			}
		}
	})

	t.Run("missing certificate tools", func(t *testing.T) {
		mock := &executor.Mock{
			LookPathFunc: func(file string) (string, error) {
				if file == "certbot" || file == "letsencrypt" {
					return "", fmt.Errorf("not found")
				}
				return "/usr/bin/" + file, nil
			},
		}

		results := checkCommands(mock)
		if results[0].Status != "error" {
			t.Errorf("expected error for missing cert tools, got %s", results[0].Status)
		}
	})

	t.Run("second candidate reported", func(t *testing.T) {
		mock := &executor.Mock{
			LookPathFunc: func(file string) (string, error) {
				if file == "certbot" {
					return "", fmt.Errorf("not found")
				}
				return "/usr/bin/" + file, nil
			},
		}

		results := checkCommands(mock)
		if results[0].Status != "ok" || results[0].Message != "certificate tool: letsencrypt" {
			t.Errorf("got %+v, want letsencrypt reported", results[0])
		}
	})
}

func TestCheckPrivileges(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		asRoot(t)

		results := checkPrivileges()
		if len(results) != 1 || results[0].Status != "ok" {
			t.Errorf("got %+v, want single ok result", results)
		}
	})

	t.Run("non-root", func(t *testing.T) {
		orig := geteuid
		geteuid = func() int { return 1000 }
		t.Cleanup(func() { geteuid = orig })

		results := checkPrivileges()
		if len(results) != 1 || results[0].Status != "warning" {
			t.Errorf("got %+v, want single warning result", results)
		}
	})
}
