// Package prerequisites checks for the client tools a site build needs.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// known describes the package managers and runtimes build commands use.
var known = map[string]Tool{
	"node": {Name: "node", Description: "JavaScript runtime used by the site build", InstallURL: "https://nodejs.org/en/download"},
	"pnpm": {Name: "pnpm", Description: "Package manager for install and build commands", InstallURL: "https://pnpm.io/installation"},
	"npm":  {Name: "npm", Description: "Package manager shipped with Node.js", InstallURL: "https://nodejs.org/en/download"},
	"npx":  {Name: "npx", Description: "Package runner shipped with Node.js", InstallURL: "https://nodejs.org/en/download"},
	"yarn": {Name: "yarn", Description: "Package manager for install and build commands", InstallURL: "https://yarnpkg.com/getting-started/install"},
	"bun":  {Name: "bun", Description: "JavaScript runtime and package manager", InstallURL: "https://bun.sh/docs/installation"},
}

// DefaultTools returns the tools the default install and build commands use.
func DefaultTools() []Tool {
	return ForCommands("pnpm install", "pnpm build")
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "git",
			Description: "Useful for tracking what was deployed",
			InstallURL:  "https://git-scm.com/downloads",
		},
		{
			Name:        "aws",
			Description: "Useful for inspecting buckets, certificates and distributions",
			InstallURL:  "https://docs.aws.amazon.com/cli/latest/userguide/getting-started-install.html",
		},
	}
}

// ForCommands returns the required tools behind the given shell commands.
// Node.js is always required. Unknown programs are checked under their own
// name.
func ForCommands(commands ...string) []Tool {
	tools := []Tool{required(known["node"])}
	seen := map[string]bool{"node": true}

	for _, c := range commands {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if seen[name] || name == "true" {
			continue
		}
		seen[name] = true

		t, ok := known[name]
		if !ok {
			t = Tool{Name: name, Description: "Used by the configured build command"}
		}
		tools = append(tools, required(t))
	}
	return tools
}

func required(t Tool) Tool {
	t.Required = true
	return t
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if !tool.Required {
			continue
		}
		if tool.InstallURL != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		} else {
			missing = append(missing, tool.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errdefs.New(errdefs.KindValidation, "check prerequisites",
		"missing required tools: "+strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			// Try to get version (best effort)
			result.Version = getToolVersion(path)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckAll checks the default and optional tools.
func CheckAll() *CheckResults {
	defaults := DefaultTools()
	optional := OptionalTools()
	all := make([]Tool, 0, len(defaults)+len(optional))
	all = append(all, defaults...)
	all = append(all, optional...)
	return Check(all)
}

// getToolVersion attempts to get the version of a tool.
// Returns empty string if version cannot be determined.
func getToolVersion(path string) string {
	// #nosec G204 - path comes from LookPath on a known tool name
	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
