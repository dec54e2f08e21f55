// Package wiql converts natural language queries into WIQL
// (Work Item Query Language) strings.
//
// The translator is rule-based and deterministic: a fixed sequence of
// extraction passes (work item type, state, priority, assignee, author,
// relative dates, tags, paths, free-text terms) each contribute WHERE
// conditions, which are AND-joined into a complete query. Unrecognized
// vocabulary is silently ignored — translation never fails, it just
// produces a broader query.
//
// All lookup tables are package-level and immutable after init, so a
// single Translator is safe for concurrent use.
package wiql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// selectClause lists the fields every translated query projects.
const selectClause = "SELECT [System.Id], [System.Title], [System.WorkItemType], " +
	"[System.State], [System.AssignedTo], [System.CreatedDate], [System.ChangedDate]"

const fromClause = "FROM WorkItems"

// orderClause is unconditional: most recently changed first, regardless
// of what the query text asked for.
const orderClause = "ORDER BY [System.ChangedDate] DESC"

// Translator converts free-text queries to WIQL. The zero value is not
// usable; construct with New (or NewWithClock in tests).
type Translator struct {
	now func() time.Time
}

// New returns a Translator that resolves relative dates against the
// system clock.
func New() *Translator {
	return &Translator{now: time.Now}
}

// NewWithClock returns a Translator with an injected clock. Relative
// date phrases ("last week", "3 days ago") resolve against a single
// sample of this clock per Translate call.
func NewWithClock(now func() time.Time) *Translator {
	return &Translator{now: now}
}

// Translate converts a natural language query into a WIQL string.
// It is total: unrecognized or empty input yields a query with no
// WHERE clause (everything, most recently changed first).
func (t *Translator) Translate(text string) string {
	raw := strings.TrimSpace(text)
	query := strings.ToLower(raw)

	conditions := t.extractConditions(raw, query)

	parts := []string{selectClause, fromClause}
	if len(conditions) > 0 {
		parts = append(parts, "WHERE "+strings.Join(conditions, " AND "))
	}
	parts = append(parts, orderClause)

	return strings.Join(parts, " ")
}

// extractConditions runs the ordered extraction passes. Each pass
// inspects the same lowercased text; only search-term extraction works
// on a stripped copy. raw keeps the original casing for quoted phrases.
func (t *Translator) extractConditions(raw, query string) []string {
	var conditions []string

	if witType := extractWorkItemType(query); witType != "" {
		conditions = append(conditions, fmt.Sprintf("[System.WorkItemType] = '%s'", escapeLiteral(witType)))
	}

	if state := extractState(query); state != "" {
		conditions = append(conditions, fmt.Sprintf("[System.State] = '%s'", escapeLiteral(state)))
	}

	if priority := extractPriority(query); priority != "" {
		conditions = append(conditions, fmt.Sprintf("[Microsoft.VSTS.Common.Priority] = %s", priority))
	}

	if cond := extractAssignee(query); cond != "" {
		conditions = append(conditions, cond)
	}

	if cond := extractAuthor(query); cond != "" {
		conditions = append(conditions, cond)
	}

	conditions = append(conditions, t.extractDateConditions(query)...)

	for _, tag := range extractTags(query) {
		conditions = append(conditions, fmt.Sprintf("[System.Tags] CONTAINS '%s'", escapeLiteral(tag)))
	}

	if area := firstSubmatch(areaPatterns, query); area != "" {
		conditions = append(conditions, fmt.Sprintf("[System.AreaPath] UNDER '%s'", escapeLiteral(area)))
	}

	if iteration := firstSubmatch(iterationPatterns, query); iteration != "" {
		conditions = append(conditions, fmt.Sprintf("[System.IterationPath] UNDER '%s'", escapeLiteral(iteration)))
	}

	if group := searchTermGroup(raw, query); group != "" {
		conditions = append(conditions, group)
	}

	return conditions
}

// ─── Work item type / state ─────────────────────────────────────────────────

type synonymRule struct {
	re    *regexp.Regexp
	value string
}

// compileSynonyms builds word-boundary matchers ordered longest phrase
// first, so "user stories" wins over "stories".
func compileSynonyms(table map[string]string) []synonymRule {
	phrases := make([]string, 0, len(table))
	for k := range table {
		phrases = append(phrases, k)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	rules := make([]synonymRule, 0, len(phrases))
	for _, p := range phrases {
		pattern := `\b` + strings.ReplaceAll(regexp.QuoteMeta(p), ` `, `\s+`) + `\b`
		rules = append(rules, synonymRule{
			re:    regexp.MustCompile(pattern),
			value: table[p],
		})
	}
	return rules
}

var workItemTypeRules = compileSynonyms(map[string]string{
	"bug": "Bug", "bugs": "Bug",
	"task": "Task", "tasks": "Task",
	"story": "User Story", "stories": "User Story",
	"user story": "User Story", "user stories": "User Story",
	"feature": "Feature", "features": "Feature",
	"epic": "Epic", "epics": "Epic",
	"issue": "Issue", "issues": "Issue",
	"test case": "Test Case", "test cases": "Test Case",
})

var stateRules = compileSynonyms(map[string]string{
	"new":         "New",
	"active":      "Active",
	"resolved":    "Resolved",
	"closed":      "Closed",
	"done":        "Done",
	"completed":   "Done",
	"in progress": "Active",
	"todo":        "To Do",
	"to do":       "To Do",
	"removed":     "Removed",
})

func extractWorkItemType(query string) string {
	for _, r := range workItemTypeRules {
		if r.re.MatchString(query) {
			return r.value
		}
	}
	return ""
}

func extractState(query string) string {
	for _, r := range stateRules {
		if r.re.MatchString(query) {
			return r.value
		}
	}
	return ""
}

// ─── Priority ────────────────────────────────────────────────────────────────

var priorityRanks = map[string]string{
	"critical": "1", "high": "2", "medium": "3", "low": "4",
	"1": "1", "2": "2", "3": "3", "4": "4",
}

var priorityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bpriority\s+(\d+)\b`),
	regexp.MustCompile(`\bpriority\s+(critical|high|medium|low)\b`),
	regexp.MustCompile(`\b(critical|high|medium|low)\s+priority\b`),
}

func extractPriority(query string) string {
	for _, re := range priorityPatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			return priorityRanks[m[1]]
		}
	}
	return ""
}

// ─── Assignee / author ───────────────────────────────────────────────────────

// A captured name runs to the next comma or end of text, so multi-word
// display names survive ("assigned to Jane van Dyk").
const nameCapture = `([^\s,]+(?:\s+[^\s,]+)*)`

var assigneePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bassigned\s+to\s+` + nameCapture),
	regexp.MustCompile(`\bassigned\s+` + nameCapture),
	regexp.MustCompile(`\bby\s+` + nameCapture),
	regexp.MustCompile(`\bfor\s+` + nameCapture),
}

var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bcreated\s+by\s+` + nameCapture),
	regexp.MustCompile(`\bauthored\s+by\s+` + nameCapture),
}

var (
	selfLiterals       = map[string]bool{"me": true, "myself": true}
	unassignedLiterals = map[string]bool{"unassigned": true, "nobody": true, "no one": true}

	unassignedKeywordRe = regexp.MustCompile(`\b(?:unassigned|nobody|no\s+one)\b`)
	selfKeywordRe       = regexp.MustCompile(`\b(?:my|mine)\b`)
	bareMeRe            = regexp.MustCompile(`\bme\b`)
)

// extractAssignee builds the [System.AssignedTo] condition.
//
// Precedence: a literal that is itself a self/unassigned term is mapped
// directly; otherwise whole-word unassigned and possessive self keywords
// override whatever name the patterns captured. A literal name filters
// with CONTAINS rather than '=' because display names vary. Bare "me" is
// only honored when no name was captured — "show me all bugs assigned to
// jane" must not turn into @Me.
func extractAssignee(query string) string {
	literal := extractName(assigneePatterns, query)

	switch {
	case selfLiterals[literal]:
		return "[System.AssignedTo] = @Me"
	case unassignedLiterals[literal]:
		return "[System.AssignedTo] = ''"
	case unassignedKeywordRe.MatchString(query):
		return "[System.AssignedTo] = ''"
	case selfKeywordRe.MatchString(query):
		return "[System.AssignedTo] = @Me"
	case literal != "":
		return fmt.Sprintf("[System.AssignedTo] CONTAINS '%s'", escapeLiteral(literal))
	case bareMeRe.MatchString(query):
		return "[System.AssignedTo] = @Me"
	}
	return ""
}

func extractAuthor(query string) string {
	literal := extractName(authorPatterns, query)
	switch {
	case literal == "":
		return ""
	case selfLiterals[literal]:
		return "[System.CreatedBy] = @Me"
	default:
		return fmt.Sprintf("[System.CreatedBy] CONTAINS '%s'", escapeLiteral(literal))
	}
}

// extractName returns the first capture across the ordered patterns.
// Matches of the bare "by X" pattern that belong to an author phrase
// ("created by", "authored by") are skipped.
func extractName(patterns []*regexp.Regexp, query string) string {
	for _, re := range patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(query, -1) {
			prefix := query[:loc[0]]
			if strings.HasSuffix(strings.TrimRight(prefix, " "), "created") ||
				strings.HasSuffix(strings.TrimRight(prefix, " "), "authored") {
				continue
			}
			return strings.TrimSpace(query[loc[2]:loc[3]])
		}
	}
	return ""
}

// ─── Relative dates ──────────────────────────────────────────────────────────

type dateRule struct {
	re   *regexp.Regexp
	days func(m []string) int
}

func fixedDays(n int) func([]string) int {
	return func([]string) int { return n }
}

func scaledDays(perUnit int) func([]string) int {
	return func(m []string) int {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		return n * perUnit
	}
}

var dateRules = []dateRule{
	{regexp.MustCompile(`\btoday\b`), fixedDays(0)},
	{regexp.MustCompile(`\byesterday\b`), fixedDays(1)},
	{regexp.MustCompile(`\bthis\s+week\b`), fixedDays(7)},
	{regexp.MustCompile(`\blast\s+week\b`), fixedDays(14)},
	{regexp.MustCompile(`\bthis\s+month\b`), fixedDays(30)},
	{regexp.MustCompile(`\blast\s+month\b`), fixedDays(60)},
	{regexp.MustCompile(`\b(\d+)\s+days?\s+ago\b`), scaledDays(1)},
	{regexp.MustCompile(`\b(\d+)\s+weeks?\s+ago\b`), scaledDays(7)},
	{regexp.MustCompile(`\b(\d+)\s+months?\s+ago\b`), scaledDays(30)},
}

var changedTriggerRe = regexp.MustCompile(`\b(?:changed|updated|modified)\b`)
var createdTriggerRe = regexp.MustCompile(`\bcreated\b`)

// extractDateConditions resolves the first relative-time phrase against
// the clock and attaches the cutoff to the triggered timestamp fields.
// "created" selects the creation date; changed/updated/modified select
// the last-modification date; with no trigger word at all the cutoff
// defaults to the modification date. At most one condition per field.
func (t *Translator) extractDateConditions(query string) []string {
	var cutoff string
	for _, r := range dateRules {
		if m := r.re.FindStringSubmatch(query); m != nil {
			cutoff = t.now().AddDate(0, 0, -r.days(m)).Format("2006-01-02")
			break
		}
	}
	if cutoff == "" {
		return nil
	}

	var conds []string
	hasCreated := createdTriggerRe.MatchString(query)
	hasChanged := changedTriggerRe.MatchString(query)

	if hasCreated {
		conds = append(conds, fmt.Sprintf("[System.CreatedDate] >= '%s'", cutoff))
	}
	if hasChanged || !hasCreated {
		conds = append(conds, fmt.Sprintf("[System.ChangedDate] >= '%s'", cutoff))
	}
	return conds
}

// ─── Tags ────────────────────────────────────────────────────────────────────

var tagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btag(?:ged)?\s+([^\s,]+)`),
	regexp.MustCompile(`\bwith\s+tag\s+([^\s,]+)`),
	regexp.MustCompile(`#([^\s,]+)`),
}

// extractTags collects every tag mention across all patterns,
// deduplicated in first-seen order. Overlapping patterns ("with tag x"
// also matches "tag x") would otherwise emit the same condition twice.
func extractTags(query string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, re := range tagPatterns {
		for _, m := range re.FindAllStringSubmatch(query, -1) {
			tag := m[1]
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// ─── Paths ───────────────────────────────────────────────────────────────────

var areaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bin\s+area\s+` + nameCapture),
	regexp.MustCompile(`\barea\s+` + nameCapture),
}

var iterationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bin\s+iteration\s+` + nameCapture),
	regexp.MustCompile(`\biteration\s+` + nameCapture),
	regexp.MustCompile(`\bin\s+sprint\s+` + nameCapture),
	regexp.MustCompile(`\bsprint\s+` + nameCapture),
}

func firstSubmatch(patterns []*regexp.Regexp, query string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(query); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ─── Free-text search terms ──────────────────────────────────────────────────

// stopWords covers query filler plus every keyword the earlier passes
// already consume (triggers, relative-time vocabulary, path markers), so
// those don't leak into the title/description search.
var stopWords = map[string]bool{
	"show": true, "find": true, "get": true, "list": true, "all": true,
	"my": true, "mine": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "that": true, "which": true,
	"work": true, "item": true, "items": true, "assigned": true,
	"created": true, "changed": true, "updated": true, "modified": true,
	"authored": true, "priority": true, "state": true, "type": true,
	"title": true, "description": true, "tag": true, "tags": true, "tagged": true,
	"area": true, "iteration": true, "sprint": true,
	"today": true, "yesterday": true, "week": true, "weeks": true,
	"month": true, "months": true, "day": true, "days": true, "ago": true,
	"last": true, "this": true, "current": true,
	"unassigned": true, "nobody": true,
	"critical": true, "high": true, "medium": true, "low": true,
}

var quotedRe = regexp.MustCompile(`"([^"]+)"`)
var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// searchTermGroup extracts the residual free-text terms and combines
// them into a single parenthesized OR-group over title and description.
// Quoted phrases come from the raw text so the caller's casing survives.
func searchTermGroup(raw, query string) string {
	terms := extractSearchTerms(raw, query)
	if len(terms) == 0 {
		return ""
	}

	clauses := make([]string, 0, len(terms)*2)
	for _, term := range terms {
		esc := escapeLiteral(term)
		clauses = append(clauses,
			fmt.Sprintf("[System.Title] CONTAINS '%s'", esc),
			fmt.Sprintf("[System.Description] CONTAINS '%s'", esc),
		)
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

func extractSearchTerms(raw, query string) []string {
	// Quoted phrases are taken verbatim before any stripping.
	var terms []string
	for _, m := range quotedRe.FindAllStringSubmatch(raw, -1) {
		terms = append(terms, m[1])
	}
	cleaned := quotedRe.ReplaceAllString(query, " ")

	// Remove the vocabulary earlier passes already consumed.
	for _, r := range workItemTypeRules {
		cleaned = r.re.ReplaceAllString(cleaned, " ")
	}
	for _, r := range stateRules {
		cleaned = r.re.ReplaceAllString(cleaned, " ")
	}

	for _, word := range wordRe.FindAllString(cleaned, -1) {
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// ─── Suggestions ─────────────────────────────────────────────────────────────

var suggestionTemplates = []string{
	"Show all bugs assigned to me",
	"Find active tasks",
	"List all user stories in current iteration",
	"Show high priority items",
	"Find bugs created this week",
	"Show my work items",
	"List completed tasks",
	"Find items with tag 'urgent'",
	"Show all features",
	"Find unassigned bugs",
}

// Suggestions returns example queries matching the partial input, or
// the first five templates when the input is empty.
func Suggestions(partial string) []string {
	if strings.TrimSpace(partial) == "" {
		return append([]string(nil), suggestionTemplates[:5]...)
	}
	needle := strings.ToLower(partial)
	var out []string
	for _, tmpl := range suggestionTemplates {
		if strings.Contains(strings.ToLower(tmpl), needle) {
			out = append(out, tmpl)
		}
	}
	return out
}

// escapeLiteral doubles single quotes for safe embedding in a WIQL
// string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
