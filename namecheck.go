package agentrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

const (
	NameCheckerAgentName = "name_checker"

	// DefaultNameMaxLen is the longest data product name accepted.
	DefaultNameMaxLen = 75

	massAdoptionFlag = "360"
)

// DataProductType is the category a data product name is checked against.
type DataProductType string

const (
	DataProductOrigin      DataProductType = "ODP"
	DataProductFoundation  DataProductType = "FDP"
	DataProductConsumption DataProductType = "CDP"
)

func (t DataProductType) Valid() bool {
	switch t {
	case DataProductOrigin, DataProductFoundation, DataProductConsumption:
		return true
	}
	return false
}

type NameVerdict string

const (
	NameVerdictValid        NameVerdict = "valid"
	NameVerdictNeedsChanges NameVerdict = "needs_changes"
	NameVerdictInvalid      NameVerdict = "invalid"
)

var (
	nameAllowedRegexp = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
	// application IDs look like AL18725
	nameIDRegexp    = regexp.MustCompile(`^[A-Z]{2}\d{5}$`)
	nameCamelRegexp = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

	dottedNameRegexp = regexp.MustCompile(`[A-Za-z0-9]+(?:\.+[A-Za-z0-9]+)+`)
	dpTypeRegexp     = regexp.MustCompile(`(?i)\b(ODP|FDP|CDP)\b`)
)

// NameCheck is one rule evaluated against a name. Status is pass, fail or info; severity
// block fails the name, warn and info do not.
type NameCheck struct {
	Source   string `json:"source"`
	Rule     string `json:"rule"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
	Target   string `json:"target,omitempty"`
	Detail   string `json:"detail"`
}

func (c NameCheck) blocks() bool {
	return c.Severity == "block" && c.Status == "fail"
}

// ConnectionCheck is a lookup in a neighbouring system that a reviewer still has to do.
type ConnectionCheck struct {
	System string `json:"system"`
	Check  string `json:"check"`
	Target string `json:"target,omitempty"`
	Status string `json:"status"`
	Action string `json:"action"`
}

// NameComponents maps name tokens to their grammar roles.
type NameComponents struct {
	ApplicationID        string `json:"application_id,omitempty"`
	ChildApplicationID   string `json:"child_application_id,omitempty"`
	BusinessName         string `json:"business_name,omitempty"`
	SubjectArea          string `json:"subject_area,omitempty"`
	Concept              string `json:"concept,omitempty"`
	SubConcept           string `json:"sub_concept,omitempty"`
	Specialisation       string `json:"specialisation,omitempty"`
	DataCollection       string `json:"data_collection,omitempty"`
	UseCaseBusinessName  string `json:"use_case_business_name,omitempty"`
	UseCaseApplicationID string `json:"use_case_application_id,omitempty"`
	MassAdoption         bool   `json:"mass_adoption,omitempty"`
}

type NameValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Tokens []string `json:"tokens"`
}

// ValidateName applies the rules shared by every data product type: length, charset,
// dot separators and UpperCamelCase tokens, where a token may instead be an application ID.
func ValidateName(name string, maxLen int) NameValidation {
	var (
		s      = strings.TrimSpace(name)
		errs   = []string{}
		length = utf8.RuneCountInString(s)
	)

	if length == 0 {
		errs = append(errs, "Name must not be empty.")
	} else if length > maxLen {
		errs = append(errs, fmt.Sprintf("Name exceeds max length of %d characters (got %d).", maxLen, length))
	}

	if !nameAllowedRegexp.MatchString(s) {
		errs = append(errs, "Only letters, digits, and '.' are allowed.")
	}

	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		errs = append(errs, "No leading or trailing '.' separators.")
	}
	if strings.Contains(s, "..") {
		errs = append(errs, "No consecutive '.' separators (e.g., '..').")
	}

	tokens := nameTokens(s)
	for i, token := range tokens {
		// the mass adoption literal of consumption names is neither an ID nor camel case
		if nameIDRegexp.MatchString(token) || token == massAdoptionFlag {
			continue
		}
		if !nameCamelRegexp.MatchString(token) {
			errs = append(errs, fmt.Sprintf("Token %d ('%s') must be UpperCamelCase or match the ID pattern AA99999.", i+1, token))
		}
	}

	return NameValidation{Valid: len(errs) == 0, Errors: errs, Tokens: tokens}
}

type TypeValidation struct {
	Valid      bool           `json:"valid"`
	Components NameComponents `json:"components"`
	Checks     []NameCheck    `json:"checks"`
}

// ValidateNameGrammar checks the token layout of the data product type:
//
//	ODP: AppID[.ChildAppID].BusinessName
//	FDP: SubjectArea.Concept[.SubConcept][.Specialisation][.DataCollection]
//	CDP: SubjectArea[.Concept][.SubConcept].UseCaseBusinessName[.360].UseCaseAppID
func ValidateNameGrammar(name string, dpType DataProductType) TypeValidation {
	var result TypeValidation
	tokens := nameTokens(name)

	switch dpType {
	case DataProductOrigin:
		result = validateOrigin(tokens)
	case DataProductFoundation:
		result = validateFoundation(tokens)
	case DataProductConsumption:
		result = validateConsumption(tokens)
	default:
		result.Checks = []NameCheck{typeCheck("TYPE", "fail", "block", "category",
			fmt.Sprintf("Unknown data product type '%s'. Expected ODP/FDP/CDP.", dpType))}
	}

	result.Valid = true
	for _, c := range result.Checks {
		if c.blocks() {
			result.Valid = false
		}
	}

	return result
}

func typeCheck(rule, status, severity, target, detail string) NameCheck {
	return NameCheck{Source: "grammar", Rule: rule, Status: status, Severity: severity, Target: target, Detail: detail}
}

func passOrFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func validateOrigin(tokens []string) TypeValidation {
	var result TypeValidation

	if len(tokens) < 2 || len(tokens) > 3 {
		result.Checks = append(result.Checks, typeCheck("ODP-GRAMMAR", "fail", "block", "grammar", "ODP requires 2-3 tokens: AppID[.ChildAppID].BusinessName"))
	} else {
		result.Checks = append(result.Checks, typeCheck("ODP-GRAMMAR", "pass", "block", "grammar", "Token count within 2-3"))
	}

	if len(tokens) >= 1 {
		result.Components.ApplicationID = tokens[0]
		ok := nameIDRegexp.MatchString(tokens[0])
		detail := "Valid ApplicationID"
		if !ok {
			detail = "First token must be a valid application ID"
		}
		result.Checks = append(result.Checks, typeCheck("ODP-ID", passOrFail(ok), "block", "application_id", detail))
	}

	if len(tokens) == 3 {
		result.Components.ChildApplicationID = tokens[1]
		ok := nameIDRegexp.MatchString(tokens[1])
		detail := "Valid Child ApplicationID"
		if !ok {
			detail = "Child ApplicationID must match the application ID pattern"
		}
		result.Checks = append(result.Checks, typeCheck("ODP-ID", passOrFail(ok), "block", "child_application_id", detail))
	}

	if len(tokens) >= 2 {
		last := tokens[len(tokens)-1]
		result.Components.BusinessName = last
		ok := !nameIDRegexp.MatchString(last)
		detail := "BusinessName is not an ID"
		if !ok {
			detail = "BusinessName must not be an ID"
		}
		result.Checks = append(result.Checks, typeCheck("ODP-LAST-NOT-ID", passOrFail(ok), "block", "business_name", detail))
	}

	return result
}

func validateFoundation(tokens []string) TypeValidation {
	var result TypeValidation

	if len(tokens) < 2 || len(tokens) > 5 {
		result.Checks = append(result.Checks, typeCheck("FDP-GRAMMAR", "fail", "block", "grammar", "FDP needs 2-5 tokens: SA.Concept[.Sub][.Spec][.Data]"))
	} else {
		result.Checks = append(result.Checks, typeCheck("FDP-GRAMMAR", "pass", "block", "grammar", "Token count within 2-5"))
	}

	roles := []*string{
		&result.Components.SubjectArea,
		&result.Components.Concept,
		&result.Components.SubConcept,
		&result.Components.Specialisation,
		&result.Components.DataCollection,
	}
	for i, token := range tokens {
		if i < len(roles) {
			*roles[i] = token
		}
	}

	result.Checks = append(result.Checks, typeCheck("FDP-TAXONOMY", "info", "warn", "taxonomy",
		"Subject/Concept/Sub-Concept membership not validated (no taxonomy configured)."))

	return result
}

func validateConsumption(tokens []string) TypeValidation {
	var result TypeValidation

	if len(tokens) < 4 || len(tokens) > 6 {
		result.Checks = append(result.Checks, typeCheck("CDP-GRAMMAR", "fail", "block", "grammar", "CDP needs 4-6 tokens: SA[.Concept][.Sub].UseCase[.'360'].AppID"))
	} else {
		result.Checks = append(result.Checks, typeCheck("CDP-GRAMMAR", "pass", "block", "grammar", "Token count within 4-6"))
	}

	if len(tokens) == 0 {
		return result
	}

	result.Components.SubjectArea = tokens[0]

	// end indexes the first token after the use case: the 360 flag or the application ID
	end := len(tokens) - 1
	if end >= 2 && tokens[end-1] == massAdoptionFlag {
		end--
	}
	optional := func(i int) bool {
		return i < end-1 && tokens[i] != massAdoptionFlag && !nameIDRegexp.MatchString(tokens[i])
	}
	i := 1
	if optional(i) {
		result.Components.Concept = tokens[i]
		i++
	}
	if optional(i) {
		result.Components.SubConcept = tokens[i]
		i++
	}
	if i < end {
		result.Components.UseCaseBusinessName = tokens[i]
	} else {
		result.Checks = append(result.Checks, typeCheck("CDP-USECASE", "fail", "block", "use_case_business_name", "Missing UseCaseBusinessName"))
	}

	flagAt, flags := -1, 0
	for idx, token := range tokens {
		if token == massAdoptionFlag {
			if flagAt < 0 {
				flagAt = idx
			}
			flags++
		}
	}
	if flags > 1 {
		result.Checks = append(result.Checks, typeCheck("CDP-360", "fail", "block", "literal", "'360' must appear at most once"))
	}
	result.Components.MassAdoption = flags > 0

	last := tokens[len(tokens)-1]
	result.Components.UseCaseApplicationID = last
	if nameIDRegexp.MatchString(last) {
		result.Checks = append(result.Checks, typeCheck("CDP-ID-LAST", "pass", "block", "use_case_application_id", "Valid ApplicationID at the end"))
	} else {
		result.Checks = append(result.Checks, typeCheck("CDP-ID-LAST", "fail", "block", "use_case_application_id", "Final token must be a valid application ID"))
	}

	if flagAt >= 0 {
		if flagAt != len(tokens)-2 {
			result.Checks = append(result.Checks, typeCheck("CDP-360-POS", "fail", "block", "literal", "'360' must be immediately before the ApplicationID"))
		} else {
			result.Checks = append(result.Checks, typeCheck("CDP-360-POS", "pass", "block", "literal", "'360' correctly placed before ApplicationID"))
		}
	}

	return result
}

// NameConnectionChecks lists the catalogue, lineage and application registry lookups the name
// depends on. None of them is verified here.
func NameConnectionChecks(dpType DataProductType, components NameComponents) []ConnectionCheck {
	notVerified := func(system, check, target, action string) ConnectionCheck {
		return ConnectionCheck{System: system, Check: check, Target: target, Status: "not_verified", Action: action}
	}

	var checks []ConnectionCheck
	switch dpType {
	case DataProductOrigin:
		if components.ApplicationID != "" {
			checks = append(checks, notVerified("SNOW", "ApplicationID exists and is active/owned", components.ApplicationID, "Lookup in ServiceNow by AppID"))
		}
		if components.ChildApplicationID != "" {
			checks = append(checks, notVerified("SNOW", "Child ApplicationID exists and is active/owned", components.ChildApplicationID, "Lookup in ServiceNow by AppID"))
		}
		checks = append(checks,
			notVerified("SOURCE", "Single-source principle (one primary AppID)", "", "Confirm system ownership"),
			notVerified("CATALOG", "Duplicate ODP full name", "", "Search catalogue for exact match"),
		)
	case DataProductFoundation:
		orUnknown := func(s string) string {
			if s == "" {
				return "?"
			}
			return s
		}
		checks = append(checks,
			notVerified("CDM", "SubjectArea/Concept/Sub-Concept membership in canonical taxonomy",
				fmt.Sprintf("%s / %s / %s", orUnknown(components.SubjectArea), orUnknown(components.Concept), orUnknown(components.SubConcept)),
				"Lookup in CDM"),
			notVerified("LINEAGE", "Declared lineage intent to upstream ODPs", "", "List ODPs this FDP derives from"),
			notVerified("CATALOG", "Duplicate FDP full name", "", "Search catalogue for exact match"),
		)
	case DataProductConsumption:
		checks = append(checks, notVerified("SNOW", "UseCaseApplicationID exists and is active/owned", components.UseCaseApplicationID, "Lookup in ServiceNow by AppID"))
		if components.MassAdoption {
			checks = append(checks, notVerified("CATALOG", "Mass-adoption flag required when '360' present", massAdoptionFlag, "Mark entry as mass-adoption"))
		}
		checks = append(checks,
			notVerified("LINEAGE", "Declared lineage to composed FDPs", "", "List FDPs used as inputs"),
			notVerified("CATALOG", "Duplicate CDP full name", "", "Search catalogue for exact match"),
		)
	default:
		checks = append(checks, notVerified("system", "Unknown type", string(dpType), "Specify ODP/FDP/CDP"))
	}

	return checks
}

type NameEdit struct {
	Index  *int   `json:"index,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type NameIssue struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Note  string `json:"note,omitempty"`
}

type tokenReview struct {
	Raw    string   `json:"raw"`
	Labels []string `json:"labels"`
	Note   string   `json:"note"`
}

// NameReview is the model's linguistic review of a name: acronyms, ambiguity, plurality,
// tense and readability.
type NameReview struct {
	SuggestedName string        `json:"suggested_name"`
	Edits         []NameEdit    `json:"edits"`
	Issues        []NameIssue   `json:"issues"`
	Explanation   string        `json:"explanation,omitempty"`
	Confidence    *float64      `json:"confidence,omitempty"`
	TokenReviews  []tokenReview `json:"token_reviews,omitempty"`
}

// Suggestion returns the suggested name when it differs from name.
func (r *NameReview) Suggestion(name string) string {
	if r == nil || r.SuggestedName == name {
		return ""
	}
	return r.SuggestedName
}

type namePayload struct {
	Name       string          `json:"name"`
	Type       DataProductType `json:"type"`
	Tokens     []string        `json:"tokens"`
	TokenTypes []string        `json:"token_types"`
	SubTokens  [][]string      `json:"sub_tokens"`
	MaxLen     int             `json:"max_len"`
}

func newNamePayload(name string, dpType DataProductType, maxLen int) namePayload {
	payload := namePayload{Name: name, Type: dpType, Tokens: nameTokens(name), MaxLen: maxLen}
	for _, token := range payload.Tokens {
		if nameIDRegexp.MatchString(token) {
			payload.TokenTypes = append(payload.TokenTypes, "id")
			payload.SubTokens = append(payload.SubTokens, []string{token})
			continue
		}
		payload.TokenTypes = append(payload.TokenTypes, "name")
		payload.SubTokens = append(payload.SubTokens, CamelSplit(token))
	}
	return payload
}

// parseNameReview reads the model reply and keeps its suggestion only when it has the same
// number of tokens and leaves every application ID untouched. Token review labels and edit
// reasons are mirrored into issues.
func parseNameReview(answer string, payload namePayload) (*NameReview, error) {
	_, blob := SplitAnswer(answer)
	if blob == "" {
		return nil, fmt.Errorf("no JSON object in review")
	}

	review := new(NameReview)
	if err := json.Unmarshal([]byte(blob), review); err != nil {
		return nil, fmt.Errorf("decoding review: %w", err)
	}

	if review.SuggestedName == "" {
		review.SuggestedName = payload.Name
	}
	suggested := nameTokens(review.SuggestedName)
	if len(suggested) != len(payload.Tokens) {
		review.SuggestedName = payload.Name
	} else {
		for i, tokenType := range payload.TokenTypes {
			if tokenType == "id" && suggested[i] != payload.Tokens[i] {
				review.SuggestedName = payload.Name
				break
			}
		}
	}

	seen := map[[2]string]bool{}
	for _, issue := range review.Issues {
		seen[[2]string{issue.Type, issue.Token}] = true
	}
	mirror := func(issueType, token, note string) {
		key := [2]string{issueType, token}
		if issueType == "" || token == "" || seen[key] {
			return
		}
		seen[key] = true
		review.Issues = append(review.Issues, NameIssue{Type: issueType, Token: token, Note: note})
	}
	for _, tr := range review.TokenReviews {
		for _, label := range tr.Labels {
			mirror(label, tr.Raw, tr.Note)
		}
	}
	for _, edit := range review.Edits {
		token := edit.From
		if edit.Index != nil && *edit.Index >= 0 && *edit.Index < len(payload.Tokens) {
			token = payload.Tokens[*edit.Index]
		}
		mirror(edit.Reason, token, "Mirrored from edit reason")
	}

	return review, nil
}

// NameReport is the combined outcome of every check run on a name.
type NameReport struct {
	Name           string            `json:"input_name"`
	Type           DataProductType   `json:"type"`
	Tokens         []string          `json:"tokens"`
	Universal      NameValidation    `json:"deterministic"`
	Grammar        TypeValidation    `json:"type_nonllm"`
	Review         *NameReview       `json:"llm_review,omitempty"`
	Connections    []ConnectionCheck `json:"connections"`
	Checks         []NameCheck       `json:"checks"`
	Verdict        NameVerdict       `json:"verdict"`
	ScientificName string            `json:"scientific_name,omitempty"`
	Suggestion     string            `json:"suggestion,omitempty"`
	Explanation    string            `json:"explanation"`
}

func nameReport(name string, dpType DataProductType, maxLen int, review *NameReview) NameReport {
	report := NameReport{
		Name:      name,
		Type:      dpType,
		Universal: ValidateName(name, maxLen),
		Grammar:   ValidateNameGrammar(name, dpType),
		Review:    review,
	}
	report.Tokens = report.Universal.Tokens
	report.Connections = NameConnectionChecks(dpType, report.Grammar.Components)

	for _, e := range report.Universal.Errors {
		report.Checks = append(report.Checks, NameCheck{Source: "universal", Rule: "universal", Status: "fail", Severity: "block", Detail: e})
	}
	report.Checks = append(report.Checks, report.Grammar.Checks...)
	if review != nil {
		for _, issue := range review.Issues {
			report.Checks = append(report.Checks, NameCheck{Source: "llm", Rule: issue.Type, Status: "info", Severity: "info", Target: issue.Token, Detail: issue.Note})
		}
	}

	suggestion := review.Suggestion(name)
	switch {
	case !report.Universal.Valid || !report.Grammar.Valid:
		report.Verdict = NameVerdictInvalid
		report.Suggestion = suggestion
	case suggestion != "":
		report.Verdict = NameVerdictNeedsChanges
		report.ScientificName = suggestion
		report.Suggestion = suggestion
	default:
		report.Verdict = NameVerdictValid
		report.ScientificName = name
	}

	if review != nil {
		report.Explanation = strings.TrimSpace(review.Explanation)
	}
	if report.Verdict == NameVerdictInvalid {
		if report.Explanation == "" {
			report.Explanation = "Review grammar/IDs and apply suggested wording if provided."
		}
		report.Explanation = "Structurally invalid: " + report.Explanation
	}

	return report
}

// NameChecker reviews data product names against the naming convention. The deterministic
// checks always run; the model review runs when a generative model is configured.
type NameChecker struct {
	router *agentRouter
	maxLen int
}

// Handle reads the name and type from the "name" and "type" inputs, falling back to the
// first dotted word and the first ODP/FDP/CDP mention in the message.
func (a *NameChecker) Handle(ctx context.Context, in AgentInput) (*envelope.Envelope, error) {
	name, dpType := nameCheckInputs(in)
	if name == "" {
		env := envelope.New("Send the data product name to check, for example `AL18725.CustomerAccount` (ODP).")
		env.AddAlert(envelope.AlertLevelWarning, "No data product name found in the message.")
		return env, nil
	}

	maxLen := a.maxLen
	if maxLen <= 0 {
		maxLen = DefaultNameMaxLen
	}

	var (
		ar      = a.router
		review  *NameReview
		reviewN string
	)
	switch {
	case ar.generative == nil:
		reviewN = "Model review skipped: no generative model configured."
	case !dpType.Valid():
		reviewN = "Model review skipped: unknown data product type."
	default:
		var err error
		review, err = a.review(ctx, name, dpType, maxLen)
		if err != nil {
			ar.logger.Sugar().With("agent", NameCheckerAgentName, "name", name, "error", err).Warn("name review failed")
			reviewN = fmt.Sprintf("Model review unavailable: %v", err)
		}
	}

	report := nameReport(name, dpType, maxLen, review)

	structured, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding name report: %w", err)
	}

	env := envelope.New(nameReportText(report)).WithStructuredJSON(string(structured))
	env.Tables = nameReportTables(report)

	switch report.Verdict {
	case NameVerdictValid:
		env.AddAlert(envelope.AlertLevelInfo, fmt.Sprintf("Verdict: %s.", report.Verdict))
	case NameVerdictNeedsChanges:
		env.AddAlert(envelope.AlertLevelWarning, fmt.Sprintf("Verdict: %s. Suggested name: %s.", report.Verdict, report.Suggestion))
	default:
		env.AddAlert(envelope.AlertLevelError, fmt.Sprintf("Verdict: %s.", report.Verdict))
	}
	if reviewN != "" {
		env.AddAlert(envelope.AlertLevelInfo, reviewN)
	}

	return env, nil
}

func (a *NameChecker) review(ctx context.Context, name string, dpType DataProductType, maxLen int) (*NameReview, error) {
	payload := newNamePayload(name, dpType, maxLen)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	question := fmt.Sprintf("Review the %s data product name %s.", dpType, name)
	answer, err := a.router.generative.Generate(ctx, a.router.templates.Prompt(NameCheckerAgentName, string(data), question))
	if err != nil {
		return nil, err
	}

	return parseNameReview(answer, payload)
}

func nameCheckInputs(in AgentInput) (string, DataProductType) {
	var name, dpType string
	if v, ok := in.Inputs["name"].(string); ok {
		name = strings.TrimSpace(v)
	}
	if v, ok := in.Inputs["type"].(string); ok {
		dpType = strings.TrimSpace(v)
	}

	text := in.Message.Text
	if dpType == "" {
		if m := dpTypeRegexp.FindStringSubmatch(text); m != nil {
			dpType = m[1]
			text = strings.Replace(text, m[0], "", 1)
		}
	}
	if name == "" {
		name = dottedNameRegexp.FindString(text)
	}

	return name, DataProductType(strings.ToUpper(dpType))
}

func nameReportText(report NameReport) string {
	var b strings.Builder
	switch report.Verdict {
	case NameVerdictValid:
		fmt.Fprintf(&b, "`%s` is a valid %s name.", report.Name, report.Type)
	case NameVerdictNeedsChanges:
		fmt.Fprintf(&b, "`%s` follows the %s grammar but could be improved: `%s`.", report.Name, report.Type, report.Suggestion)
	default:
		fmt.Fprintf(&b, "`%s` is not a valid %s name.", report.Name, report.Type)
		if report.Suggestion != "" {
			fmt.Fprintf(&b, " Suggested wording: `%s`.", report.Suggestion)
		}
	}
	if report.Explanation != "" {
		b.WriteString("\n\n")
		b.WriteString(report.Explanation)
	}
	return b.String()
}

func nameReportTables(report NameReport) []envelope.Table {
	checks := envelope.Table{
		Title:   "Name checks",
		Columns: []string{"source", "rule", "status", "severity", "target", "detail"},
	}
	for _, c := range report.Checks {
		checks.Rows = append(checks.Rows, []any{c.Source, c.Rule, c.Status, c.Severity, c.Target, c.Detail})
	}

	connections := envelope.Table{
		Title:   "Connection checks",
		Columns: []string{"system", "check", "target", "status", "action"},
	}
	for _, c := range report.Connections {
		connections.Rows = append(connections.Rows, []any{c.System, c.Check, c.Target, c.Status, c.Action})
	}

	return []envelope.Table{checks, connections}
}

func nameTokens(name string) []string {
	var tokens []string
	for _, token := range strings.Split(strings.TrimSpace(name), ".") {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// CamelSplit splits an UpperCamelCase token into words. Acronyms stay together and digits
// belong to the word before them: "CustomerHTTPView2" gives Customer, HTTP, View2.
func CamelSplit(token string) []string {
	var (
		runes = []rune(token)
		words []string
		start = -1
	)
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	lowerOrDigit := func(r rune) bool {
		return unicode.IsLower(r) || unicode.IsDigit(r)
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}

		prev := runes[i-1]
		if !unicode.IsUpper(r) {
			continue
		}
		// a capital after a lower case letter or digit starts a word, and so does the last
		// capital of an acronym followed by a lower case letter
		if lowerOrDigit(prev) || (i+1 < len(runes) && lowerOrDigit(runes[i+1])) {
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return words
}
