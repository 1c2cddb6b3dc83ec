package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/webhostinit/internal/config"
	"github.com/ksyq12/webhostinit/internal/executor"
	"github.com/ksyq12/webhostinit/internal/output"
	"github.com/ksyq12/webhostinit/internal/platform"
	"github.com/ksyq12/webhostinit/internal/provision"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that this system can be provisioned",
	Long: `Run read-only diagnostic checks for the tools and directories a
provisioning run depends on.

Checks:
  - Root privileges
  - Certificate tool availability (certbot, letsencrypt)
  - git and service commands
  - Vhosts root, nginx, PHP-FPM, and logrotate directories

Examples:
  webhostinit doctor
  webhostinit doctor --json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result.
type CheckResult struct {
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// DoctorReport contains all diagnostic results.
type DoctorReport struct {
	Commands    []CheckResult `json:"commands"`
	Directories []CheckResult `json:"directories"`
	Privileges  []CheckResult `json:"privileges"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	runner := newRunner()

	report := &DoctorReport{
		Commands:    checkCommands(runner),
		Directories: checkDirectories(),
		Privileges:  checkPrivileges(),
	}

	if jsonOutput {
		return output.JSON(report)
	}
	displayReport(report)
	return nil
}

func checkCommands(runner executor.CommandRunner) []CheckResult {
	var results []CheckResult

	var certTool string
	for _, name := range provision.CertToolCandidates {
		if _, err := runner.LookPath(name); err == nil {
			certTool = name
			break
		}
	}
	if certTool != "" {
		results = append(results, CheckResult{Status: "ok", Message: "certificate tool: " + certTool})
	} else {
		results = append(results, CheckResult{
			Status:  "error",
			Message: "no certificate tool found (tried " + strings.Join(provision.CertToolCandidates, ", ") + ")",
		})
	}

	for _, name := range []string{"git", "service"} {
		if _, err := runner.LookPath(name); err == nil {
			results = append(results, CheckResult{Status: "ok", Message: name + " available"})
		} else {
			results = append(results, CheckResult{Status: "error", Message: name + " not found in PATH"})
		}
	}

	return results
}

func checkDirectories() []CheckResult {
	var results []CheckResult

	required := []struct {
		label string
		dir   string
	}{
		{"vhosts root", config.DefaultVHostsRoot},
		{"nginx conf", config.DefaultNginxConfDir},
		{"logrotate.d", config.DefaultLogrotateDir},
	}
	for _, req := range required {
		label, dir := req.label, req.dir
		if platform.PathExists(dir) {
			results = append(results, CheckResult{Status: "ok", Message: fmt.Sprintf("%s directory: %s", label, dir)})
		} else {
			results = append(results, CheckResult{Status: "warning", Message: fmt.Sprintf("%s directory missing: %s", label, dir)})
		}
	}

	fpmDirs := platform.FpmConfDirs()
	if len(fpmDirs) > 0 {
		results = append(results, CheckResult{Status: "ok", Message: "php-fpm pool directory: " + strings.Join(fpmDirs, ", ")})
	} else {
		results = append(results, CheckResult{Status: "warning", Message: "no php-fpm pool directory found"})
	}

	return results
}

func checkPrivileges() []CheckResult {
	if geteuid() == 0 {
		return []CheckResult{{Status: "ok", Message: "running as root"}}
	}
	return []CheckResult{{Status: "warning", Message: "not running as root; provisioning will refuse to run"}}
}

func displayReport(report *DoctorReport) {
	sections := []struct {
		title  string
		checks []CheckResult
	}{
		{"Commands", report.Commands},
		{"Directories", report.Directories},
		{"Privileges", report.Privileges},
	}

	for _, section := range sections {
		output.Print("%s:", section.title)
		for _, check := range section.checks {
			switch check.Status {
			case "ok":
				output.Success("%s", check.Message)
			case "warning":
				output.Warn("%s", check.Message)
			default:
				output.Error("%s", check.Message)
			}
		}
	}
}
