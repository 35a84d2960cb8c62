// Package prerequisites verifies required credentials and client tools before
// any mutating operation runs. A failed check aborts the process before the
// first cloud call is issued.
package prerequisites

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Credential represents an environment credential that may be required.
type Credential struct {
	// Vars lists environment variable names; at least one must be set.
	Vars []string

	// Required indicates if this credential is mandatory.
	Required bool

	// Description explains what the credential is used for.
	Description string
}

// Tool represents a client tool that may be required in PATH.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string
}

// ForCloud returns the credential checks for the given cloud provider.
func ForCloud(cloud string) []Credential {
	switch cloud {
	case "aws":
		return []Credential{
			{
				Vars:        []string{"AWS_ACCESS_KEY_ID", "AWS_PROFILE", "AWS_WEB_IDENTITY_TOKEN_FILE"},
				Required:    true,
				Description: "AWS credentials for the EKS control-plane API",
			},
		}
	case "azure":
		return []Credential{
			{
				Vars:        []string{"AZURE_SUBSCRIPTION_ID"},
				Required:    true,
				Description: "Azure subscription for the AKS control-plane API",
			},
		}
	default:
		return nil
	}
}

// AuthExecTools returns the tools the generated kubeconfigs shell out to for
// token retrieval. They are not needed for provisioning itself, only for
// kubectl access afterwards, so they are optional.
func AuthExecTools(cloud string) []Tool {
	switch cloud {
	case "aws":
		return []Tool{
			{Name: "aws", Description: "Used by kubeconfig exec auth (aws eks get-token)"},
		}
	case "azure":
		return []Tool{
			{Name: "kubelogin", Description: "Used by kubeconfig exec auth for AKS"},
		}
	default:
		return nil
	}
}

// CheckResults contains the outcome of running all checks.
type CheckResults struct {
	MissingCredentials []Credential
	MissingTools       []Tool
}

// HasErrors returns true if any required check failed.
func (r *CheckResults) HasErrors() bool {
	for _, c := range r.MissingCredentials {
		if c.Required {
			return true
		}
	}
	for _, t := range r.MissingTools {
		if t.Required {
			return true
		}
	}
	return false
}

// Error returns an error describing the failed required checks, or nil.
func (r *CheckResults) Error() error {
	var missing []string
	for _, c := range r.MissingCredentials {
		if c.Required {
			missing = append(missing, fmt.Sprintf("one of %s (%s)", strings.Join(c.Vars, ", "), c.Description))
		}
	}
	for _, t := range r.MissingTools {
		if t.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", t.Name, t.Description))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing prerequisites: %s", strings.Join(missing, "; "))
}

// lookPath is a test seam for exec.LookPath.
var lookPath = exec.LookPath

// Check runs the given credential and tool checks.
func Check(creds []Credential, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, c := range creds {
		if !anyEnvSet(c.Vars) {
			results.MissingCredentials = append(results.MissingCredentials, c)
		}
	}

	for _, t := range tools {
		if _, err := lookPath(t.Name); err != nil {
			results.MissingTools = append(results.MissingTools, t)
		}
	}

	return results
}

func anyEnvSet(vars []string) bool {
	for _, v := range vars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
