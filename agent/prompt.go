package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/hupe1980/debateforge/core"
)

const seekerSystem = `You are the Opportunity Seeker in an adversarial product debate. You propose commercially buildable product deviations that stay adjacent to an existing market while being clearly distinguishable from it. You answer only with the requested JSON.`

const builderSystem = `You are the Skeptical Builder in an adversarial product debate. You attack proposed products with hard-nosed feasibility critique: cost, manufacturing, compliance, channel and operational blockers, with unit-cost estimates. You answer only with the requested JSON.`

var promptFuncs = template.FuncMap{
	"join":     strings.Join,
	"blockers": blockerSummary,
}

// proposeTmpl instructs the Seeker to emit candidate drafts. The draft
// schema mirrors the corpus attribute fields so candidates vectorize into
// the same feature space as known products.
var proposeTmpl = template.Must(template.New("propose").Funcs(promptFuncs).Parse(`Propose between 5 and 10 new product concepts for the market below. Each concept must be a bounded deviation from the known products: adjacent enough to sell through existing channels, different enough to be distinguishable.

Core market: {{.CoreMarket}}
Category: {{.Category}}
Round: {{.Round}}
{{if .KnownProducts}}
Known products in this category:
{{range .KnownProducts}}- {{.Name}}: users={{.TargetUser}}, price={{.PriceBand}}, channel={{.Channel}}, features={{join .Functional ", "}}
{{end}}{{end}}{{if .Survivors}}
Build on these surviving concepts from the previous round (positive exemplars):
{{range .Survivors}}- [{{.ID}}] {{.Description}} (user_value={{.UserValue}}, complexity={{.Complexity}}, novelty_sigma={{printf "%.2f" .NoveltySigma}})
{{end}}{{end}}{{if .Rejected}}
Avoid repeating these rejected concepts and their blockers (negative exemplars):
{{range .Rejected}}- [{{.ID}}] {{.Description}}{{if .Feasibility}} (blockers: {{blockers .Feasibility}}){{end}}
{{end}}{{end}}{{if .Notes}}
Previous round notes: {{.Notes}}
{{end}}
Respond with a JSON object containing a "candidates" array. Each element must have:
- description: one or two sentences describing the product
- target_user: the target user tag
- price_band: retail price range as "low-high" (e.g. "40-80")
- channel: the primary sales channel
- functional: array of functional attributes
- materials: array of main materials
- regulatory: array of regulatory tags (may be empty)
- pain_points: array of user pain points addressed
- user_value: self-assessed user value, 0 to 10
- complexity: self-assessed build complexity, 0 to 10

Do not include any text outside the JSON object.`))

// attackTmpl instructs the Builder to critique one candidate.
var attackTmpl = template.Must(template.New("attack").Funcs(promptFuncs).Parse(`Attack the following product concept with a structured feasibility critique.

Concept: {{.Description}}
Target user: {{.Attrs.TargetUser}}
Price band: {{.Attrs.PriceBand}}
Channel: {{.Attrs.Channel}}
Functional attributes: {{join .Attrs.Functional ", "}}
Materials: {{join .Attrs.Materials ", "}}
Self-assessed complexity: {{.Complexity}}

Respond with a JSON object:
- blockers: array of {"tag": one of "cost"|"manufacturing"|"compliance"|"channel"|"operational", "detail": string}
- cost_low: {"moq": small minimum order quantity, "unit_cost": estimated unit cost at that MOQ}
- cost_high: {"moq": large minimum order quantity, "unit_cost": estimated unit cost at that MOQ}
- fixes: array of suggested fixes for the blockers
- revised_complexity: optional number 0-10, only when your analysis contradicts the self-assessment
- notes: short manufacturing/cost summary

Do not include any text outside the JSON object.`))

// deepenTmpl instructs the Seeker to expand the winner into a full concept.
var deepenTmpl = template.Must(template.New("deepen").Funcs(promptFuncs).Parse(`The debate converged on the following winning product concept. Expand it into a full concept document.

Concept: {{.Candidate.Description}}
Target user: {{.Candidate.Attrs.TargetUser}}
Price band: {{.Candidate.Attrs.PriceBand}}
Channel: {{.Candidate.Attrs.Channel}}
Functional attributes: {{join .Candidate.Attrs.Functional ", "}}
Materials: {{join .Candidate.Attrs.Materials ", "}}
{{if .Candidate.Feasibility}}Feasibility notes: {{.Candidate.Feasibility.Notes}}
Unit cost at volume: {{printf "%.2f" .Candidate.Feasibility.CostHigh.UnitCost}} (MOQ {{.Candidate.Feasibility.CostHigh.MOQ}})
{{end}}
Respond with a JSON object:
- title: product name
- user_story: one paragraph from the target user's perspective
- features: array of concrete features
- price: planned retail price (number)
- bom: array of {"part": string, "material": string, "quantity": int, "unit_cost": number}
- risks: array of launch risks

Do not include any text outside the JSON object.`))

// reviewTmpl instructs the Builder to sanity-check the deepened concept.
var reviewTmpl = template.Must(template.New("review").Parse(`Review the following concept document for cost realism and missing risks.

{{.ConceptJSON}}

Respond with a JSON object:
- unit_cost: optional revised total unit cost (number), only when the BOM does not support the stated economics
- break_even_units: optional integer estimate of units sold to recoup tooling and setup costs
- risks: array of additional launch risks to append (may be empty)
- notes: one-line verdict

Do not include any text outside the JSON object.`))

// blockerSummary renders a report's blockers as "tag: detail" pairs.
func blockerSummary(r *core.FeasibilityReport) string {
	if r == nil || len(r.Blockers) == 0 {
		return "none"
	}
	parts := make([]string, len(r.Blockers))
	for i, b := range r.Blockers {
		parts[i] = fmt.Sprintf("%s: %s", b.Tag, b.Detail)
	}
	return strings.Join(parts, "; ")
}

func renderProposePrompt(rc Context) (string, error) {
	var buf bytes.Buffer
	if err := proposeTmpl.Execute(&buf, rc); err != nil {
		return "", fmt.Errorf("rendering propose prompt: %w", err)
	}
	return buf.String(), nil
}

func renderAttackPrompt(c core.Candidate) (string, error) {
	var buf bytes.Buffer
	if err := attackTmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("rendering attack prompt: %w", err)
	}
	return buf.String(), nil
}

func renderDeepenPrompt(c core.Candidate) (string, error) {
	var buf bytes.Buffer
	if err := deepenTmpl.Execute(&buf, struct{ Candidate core.Candidate }{c}); err != nil {
		return "", fmt.Errorf("rendering deepen prompt: %w", err)
	}
	return buf.String(), nil
}

func renderReviewPrompt(doc core.ConceptDocument) (string, error) {
	js, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := reviewTmpl.Execute(&buf, struct{ ConceptJSON string }{string(js)}); err != nil {
		return "", fmt.Errorf("rendering review prompt: %w", err)
	}
	return buf.String(), nil
}

// repromptSuffix appends the validation failure to the original prompt for
// the single re-prompt attempt.
func repromptSuffix(prompt, reason string) string {
	return prompt + "\n\nYour previous response was invalid: " + reason + "\nRespond again with only the corrected JSON."
}
