package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cchalm/repo-assistant/internal/githubapi"
)

// DefaultFallbackPerPage is used when the caller's fallback page size is not positive
const DefaultFallbackPerPage = 10

var (
	urlPairRe  = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/([a-z0-9][a-z0-9-]*)/([a-z0-9._-]+)(?:/\S*)?`)
	barePairRe = regexp.MustCompile("(?i)(?:^|[\\s(\\[\"'`])([a-z0-9][a-z0-9-]*)/([a-z0-9._-]+)(?:['’]s)?[)\\]\"'`,;:!?]*(?:$|\\s)")

	// A pair right after one of these words names the repository the request is about
	pairIntroRe = regexp.MustCompile("(?i)\\b(?:from|in|for|of|repo|repository)[\\s(\\[\"'`]+$")

	summarizeRe = regexp.MustCompile(`(?i)\b(?:summari[sz]e|summary|analy[sz]e|analysis|overview|describe)\b`)
	prsRe       = regexp.MustCompile(`(?i)\b(?:prs?|pulls|pull\s+requests?)\b`)
	issuesRe    = regexp.MustCompile(`(?i)\bissues?\b`)
	commitsRe   = regexp.MustCompile(`(?i)\bcommits?\b`)
	orgWordRe   = regexp.MustCompile(`(?i)\b(?:orgs?|organi[sz]ations?)\b`)
	popularRe   = regexp.MustCompile(`(?i)\b(?:popular|most\s+starred|top|best|trending)\b`)

	closedRe = regexp.MustCompile(`(?i)\b(?:closed|close|merged|resolved)\b`)
	openRe   = regexp.MustCompile(`(?i)\b(?:open|opened|active)\b`)
	allRe    = regexp.MustCompile(`(?i)\b(?:all|any)\b`)

	countRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:top|first|latest|recent|last)\s+(\d+)\b`),
		regexp.MustCompile(`(?i)\b(\d+)\s+(?:[a-z]+\s+)?(?:repos?|repositories|issues?|prs?|pull\s+requests?|commits?)\b`),
		regexp.MustCompile(`\b(\d{1,3})\b`),
	}
	// Digits inside dates, #N references and version strings are never a count
	numberNoiseRe = regexp.MustCompile(`(?i)\b\d{1,4}[/-]\d{1,2}(?:[/-]\d{1,4})?\b|#\d+\b|\bv?\d+(?:\.\d+)+\b`)

	orgRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bfrom\s+(?:the\s+)?([a-z0-9][a-z0-9-]*)\s+(?:org|organi[sz]ation)\b`),
		regexp.MustCompile(`(?i)\bin\s+(?:the\s+)?([a-z0-9][a-z0-9-]*)\s+(?:org|organi[sz]ation)\b`),
		regexp.MustCompile(`(?i)\b(?:org|organi[sz]ation)(?::|\s+)@?([a-z0-9][a-z0-9-]*)`),
		regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9-]*)\s+(?:org|organi[sz]ation)\b`),
	}

	userRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:user|owner|author)(?::|\s+)@?([a-z0-9][a-z0-9-]*)`),
		regexp.MustCompile(`(?i)(?:^|\s)@([a-z0-9][a-z0-9-]*)`),
		regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9-]*)'s\s+(?:repos?|repositories|projects)\b`),
		regexp.MustCompile(`(?i)\b(?:repos?|repositories|projects)\s+(?:by|of|from)\s+@?([a-z0-9][a-z0-9-]*)`),
	}

	languageNames = `golang|go|python|javascript|typescript|rust|java|kotlin|swift|ruby|php|c\+\+|c#|csharp|scala|` +
		`elixir|haskell|clojure|dart|lua|perl|shell|zig|julia|js|ts|py`
	languageRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\blanguage(?::|\s+)([a-z0-9+#.-]+)`),
		regexp.MustCompile(`(?i)\b(?:written\s+in|in)\s+(` + languageNames + `)(?:$|[\s,.!?])`),
		regexp.MustCompile(`(?i)\b(` + languageNames + `)\s+(?:repos?|repositories|projects|librar(?:y|ies)|libs|tools|frameworks)\b`),
	}
	languageAliases = map[string]string{
		"golang": "go",
		"js":     "javascript",
		"ts":     "typescript",
		"py":     "python",
		"csharp": "c#",
	}

	topicRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btopic(?::|\s+)([a-z0-9][a-z0-9-]*)`),
		regexp.MustCompile(`(?i)\btagged(?:\s+with)?\s+([a-z0-9][a-z0-9-]*)`),
	}

	refRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:on|from|in)\s+(?:the\s+)?([a-z0-9][a-z0-9._/-]*)\s+branch\b`),
		regexp.MustCompile(`(?i)\bbranch(?::|\s+)([a-z0-9][a-z0-9._/-]*)`),
		regexp.MustCompile(`(?i)\b(?:sha|ref)(?::|\s+)([a-z0-9][a-z0-9._/-]*)`),
	}
	shaRes = []*regexp.Regexp{regexp.MustCompile(`(?i)\b([0-9a-f]{7,40})\b`)}
	onRes  = []*regexp.Regexp{regexp.MustCompile(`(?i)\bon\s+([a-z0-9][a-z0-9._/-]*)`)}
)

// Words that look like an owner in "a/b" but never are one
var notOwners = map[string]bool{
	"and": true, "or": true, "w": true, "issue": true, "issues": true, "pr": true, "prs": true, "pull": true,
	"pulls": true, "commit": true, "commits": true, "repo": true, "repos": true,
}

// Words that carry no search meaning and are never an org or user name
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a an the me my our your show list get find fetch give display search look
		for from in of on by with and or to at all any some please can could would you i we want need see what which
		who are is be that this those these there about up new newest latest recent last first top popular most
		starred stars star best trending sort sorted order repo repos repository repositories project projects org
		orgs organization organisation organizations user users owner author github open opened closed close
		merged resolved active issue issues pr prs pull pulls request requests commit commits branch branches
		summarize summarise summary analyze analyse analysis overview describe tell how many`) {
		stopwords[w] = true
	}
}

// request is the input text broken into the pieces every rule needs
type request struct {
	text string

	owner, repo string
	hasPair     bool

	summarize, prs, issues, commits bool
	orgWord, popular                bool

	org, user, language, topic, ref string
	keywords                        []string

	state githubapi.State
	count int
}

func parse(input string, fallbackPerPage int) *request {
	r := &request{text: input}

	rest := input
	r.owner, r.repo, rest, r.hasPair = extractPair(rest)

	r.summarize = summarizeRe.MatchString(rest)
	r.prs = prsRe.MatchString(rest)
	r.issues = issuesRe.MatchString(rest)
	r.commits = commitsRe.MatchString(rest)
	r.orgWord = orgWordRe.MatchString(rest)
	r.popular = popularRe.MatchString(rest)
	r.state = extractState(rest)

	r.org, rest = firstToken(rest, orgRes, validName)
	r.user, rest = firstToken(rest, userRes, validName)
	r.language, rest = firstToken(rest, languageRes, func(string) bool { return true })
	r.language = normalizeLanguage(r.language)
	r.topic, rest = firstToken(rest, topicRes, validName)
	if r.hasPair && r.commits {
		r.ref, rest = extractRef(rest)
	}

	r.count = extractCount(rest, fallbackPerPage)
	r.keywords = extractKeywords(rest)
	return r
}

// extractPair finds an owner/repo pair and returns the text with the pair removed. A github.com URL wins, then the
// first bare pair introduced by "from", "in", "for", "of" or "repo", then the first bare pair
func extractPair(s string) (owner, repo, rest string, ok bool) {
	if m := urlPairRe.FindStringSubmatchIndex(s); m != nil {
		if repo := cleanRepo(s[m[4]:m[5]]); repo != "" {
			return s[m[2]:m[3]], repo, cut(s, m[0], m[1]), true
		}
	}

	first := -1
	var firstOwner, firstRepo, firstRest string
	for pos := 0; pos < len(s); {
		m := barePairRe.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[2], pos+m[5]
		owner, repo := s[start:pos+m[3]], cleanRepo(s[pos+m[4]:end])
		if validOwner(owner) && repo != "" {
			if pairIntroRe.MatchString(s[:start]) {
				return owner, repo, cut(s, start, end), true
			}
			if first < 0 {
				first, firstOwner, firstRepo, firstRest = start, owner, repo, cut(s, start, end)
			}
		}
		pos = end
	}
	if first >= 0 {
		return firstOwner, firstRepo, firstRest, true
	}
	return "", "", s, false
}

func cleanRepo(repo string) string {
	repo = strings.TrimRight(repo, ".")
	repo = strings.TrimSuffix(repo, ".git")
	return strings.TrimRight(repo, ".")
}

func validOwner(owner string) bool {
	return !allDigits(owner) && !notOwners[strings.ToLower(owner)]
}

// firstToken returns the capture of the first pattern match whose capture passes valid, and s with that match removed
func firstToken(s string, patterns []*regexp.Regexp, valid func(string) bool) (string, string) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
			tok := s[m[2]:m[3]]
			if valid(tok) {
				return tok, cut(s, m[0], m[1])
			}
		}
	}
	return "", s
}

func validName(tok string) bool {
	if len(tok) > 39 || strings.HasPrefix(tok, "-") || strings.HasSuffix(tok, "-") {
		return false
	}
	return !allDigits(tok) && !stopwords[strings.ToLower(tok)]
}

// extractRef finds a branch or SHA: named first ("branch dev", "sha abc1234"), then a bare SHA, then "on dev"
func extractRef(s string) (string, string) {
	if ref, rest := firstToken(s, refRes, validRef); ref != "" {
		return ref, rest
	}
	if sha, rest := firstToken(s, shaRes, validSHA); sha != "" {
		return sha, rest
	}
	return firstToken(s, onRes, validRef)
}

func validRef(tok string) bool {
	return !stopwords[strings.ToLower(tok)] && !allDigits(tok)
}

// validSHA accepts hex strings that mix digits and letters, so neither plain numbers nor words like "defaced" pass
func validSHA(tok string) bool {
	return strings.IndexFunc(tok, unicode.IsDigit) >= 0 && strings.IndexFunc(tok, unicode.IsLetter) >= 0
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimRight(lang, "."))
	if alias, ok := languageAliases[lang]; ok {
		return alias
	}
	return lang
}

// extractState maps state vocabulary onto a filter. Closed wins over open, and both over all
func extractState(s string) githubapi.State {
	switch {
	case closedRe.MatchString(s):
		return githubapi.StateClosed
	case openRe.MatchString(s):
		return githubapi.StateOpen
	case allRe.MatchString(s):
		return githubapi.StateAll
	}
	return ""
}

func extractCount(s string, fallbackPerPage int) int {
	s = numberNoiseRe.ReplaceAllString(s, " ")
	for _, re := range countRes {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Too many digits to parse is still a request for as many as possible
			n = githubapi.MaxPerPage
		}
		return githubapi.ClampPerPage(n)
	}
	return fallbackCount(fallbackPerPage)
}

func fallbackCount(n int) int {
	if n <= 0 {
		n = DefaultFallbackPerPage
	}
	return githubapi.ClampPerPage(n)
}

func extractKeywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_.+#", r)
	})

	var keywords []string
	for _, f := range fields {
		f = strings.Trim(f, "-_.")
		if len(f) < 2 || allDigits(f) || stopwords[strings.ToLower(f)] {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

func cut(s string, start, end int) string {
	return s[:start] + " " + s[end:]
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
