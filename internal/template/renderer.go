// Package template renders named notification templates with parameters into
// localized text. Locale context is the reseller id; per-reseller overrides
// can be layered on top of the built-in registry.
package template

import (
	"fmt"
	"strings"
)

// Renderer is the translation collaborator injected into the handler.
type Renderer interface {
	Render(key string, params map[string]string, resellerID int) (string, error)
}

// Template keys known to the registry.
const (
	KeyNewPositionAdded          = "NewPositionAdded"
	KeyPositionStatusHasChanged  = "PositionStatusHasChanged"
	KeyEmployeeEmailSubject      = "complaintEmployeeEmailSubject"
	KeyEmployeeEmailBody         = "complaintEmployeeEmailBody"
	KeyClientEmailSubject        = "complaintClientEmailSubject"
	KeyClientEmailBody           = "complaintClientEmailBody"
)

// Registry is the built-in Renderer backed by an in-memory template map.
type Registry struct {
	templates map[string]string
	// per-reseller overrides, keyed "<resellerID>/<templateKey>"
	overrides map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		templates: map[string]string{
			KeyNewPositionAdded:         "New return position added for reseller {{RESELLER_ID}}.",
			KeyPositionStatusHasChanged: "Position status has changed from {{FROM}} to {{TO}}.",
			KeyEmployeeEmailSubject:     "Return update for complaint {{COMPLAINT_NUMBER}}",
			KeyEmployeeEmailBody: "Complaint {{COMPLAINT_NUMBER}} (agreement {{AGREEMENT_NUMBER}}, " +
				"consumption {{CONSUMPTION_NUMBER}}) for client {{CLIENT_NAME}} was updated on {{DATE}}. " +
				"Creator: {{CREATOR_NAME}}. Expert: {{EXPERT_NAME}}. {{DIFFERENCES}}",
			KeyClientEmailSubject: "Update on your return {{COMPLAINT_NUMBER}}",
			KeyClientEmailBody: "Dear {{CLIENT_NAME}}, your return {{COMPLAINT_NUMBER}} " +
				"(agreement {{AGREEMENT_NUMBER}}) was updated on {{DATE}}. {{DIFFERENCES}}",
		},
		overrides: map[string]string{},
	}
}

// Override installs a reseller-specific template text for a key.
func (r *Registry) Override(resellerID int, key, text string) {
	r.overrides[fmt.Sprintf("%d/%s", resellerID, key)] = text
}

func (r *Registry) Render(key string, params map[string]string, resellerID int) (string, error) {
	tmpl, ok := r.overrides[fmt.Sprintf("%d/%s", resellerID, key)]
	if !ok {
		tmpl, ok = r.templates[key]
	}
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	return substitute(tmpl, params), nil
}

// substitute replaces {{KEY}} placeholders and strips any that remain unbound.
func substitute(tmpl string, params map[string]string) string {
	result := tmpl

	for k, v := range params {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return strings.TrimSpace(result)
}
