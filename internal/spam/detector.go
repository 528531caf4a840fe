package spam

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Score thresholds. A message is considered spam at SpamThreshold; the share
// pipeline hard-blocks only at BlockThreshold (everything below is a warning).
const (
	SpamThreshold  = 50
	BlockThreshold = 80
)

// Risk levels derived from the final score
const (
	RiskHigh    = "high"
	RiskMedium  = "medium"
	RiskLow     = "low"
	RiskMinimal = "minimal"
)

// Compiled regex patterns for spam detection.
// Compiled once at package init and reused for every call, safe for
// concurrent use. Go's regexp (RE2) has no backreferences, so repeated-run
// detection is done with linear scans instead.
var (
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf)/\S*)`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Anchored to whitespace/string boundaries to avoid matching random digit
	// sequences embedded in normal words or short numbers like "100".
	phonePattern = regexp.MustCompile(`(?:^|\s)(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:\s|$)`)

	cryptoPattern = regexp.MustCompile(`\b(0x[a-fA-F0-9]{40}|[13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{25,59})\b`)

	emojiRunPattern = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]{5,}`)

	exclamationRunPattern = regexp.MustCompile(`[!?]{3,}`)
)

// spamPhrases is the fixed keyword list; each distinct matched phrase adds 20
// points. Tuning spam sensitivity means editing this list.
var spamPhrases = []string{
	"free money",
	"click here",
	"limited time offer",
	"act now",
	"make money fast",
	"work from home",
	"100% free",
	"no credit check",
	"congratulations you won",
	"claim your prize",
	"dm me now",
	"double your",
	"crypto giveaway",
	"guaranteed income",
	"buy followers",
}

// Analysis is the result of scoring a message. Never persisted; recomputed
// on every call.
type Analysis struct {
	Score      int            `json:"score"`
	Confidence float64        `json:"confidence"`
	IsSpam     bool           `json:"is_spam"`
	RiskLevel  string         `json:"risk_level"`
	Reasons    []string       `json:"reasons"`
	Details    map[string]int `json:"details"`
}

// HistoryEntry is one past message used for context analysis
type HistoryEntry struct {
	Message   string
	Timestamp time.Time
	Targets   []string
}

// HistoryContext carries optional recent-activity context for a user.
// Now is injectable for tests; the zero value means time.Now().
type HistoryContext struct {
	History []HistoryEntry
	Now     time.Time
}

// Analyze scores a message for spam signals. It is a pure function of the
// message and the optional history context.
func Analyze(message string, hctx *HistoryContext) Analysis {
	a := Analysis{
		Reasons: []string{},
		Details: map[string]int{
			"characters": 0,
			"patterns":   0,
			"keywords":   0,
			"repetition": 0,
			"context":    0,
		},
	}

	if message != "" {
		a.addCharacterScore(message)
		a.addPatternScore(message)
		a.addKeywordScore(message)
		a.addRepetitionScore(message)
	}
	if hctx != nil {
		a.addContextScore(message, hctx)
	}

	a.Confidence = float64(a.Score) / 100
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	a.IsSpam = a.Score >= SpamThreshold

	switch {
	case a.Score >= 80:
		a.RiskLevel = RiskHigh
	case a.Score >= 50:
		a.RiskLevel = RiskMedium
	case a.Score >= 25:
		a.RiskLevel = RiskLow
	default:
		a.RiskLevel = RiskMinimal
	}

	return a
}

func (a *Analysis) add(bucket string, points int, reason string) {
	a.Score += points
	a.Details[bucket] += points
	a.Reasons = append(a.Reasons, reason)
}

// addCharacterScore penalizes abnormal character ratios. Short messages are
// skipped to avoid false positives on things like "OK!!" or "GOAL".
func (a *Analysis) addCharacterScore(message string) {
	var upper, letters, digits, punct, space, total int
	for _, r := range message {
		total++
		switch {
		case unicode.IsUpper(r):
			upper++
			letters++
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			punct++
		case unicode.IsSpace(r):
			space++
		}
	}
	if total == 0 {
		return
	}

	if total > 10 {
		if letters > 0 && float64(upper)/float64(letters) > 0.7 {
			a.add("characters", 20, "excessive uppercase")
		}
		if float64(digits)/float64(total) > 0.5 {
			a.add("characters", 20, "excessive digits")
		}
		if float64(punct)/float64(total) > 0.3 {
			a.add("characters", 15, "excessive punctuation")
		}
	}
	if total > 20 && float64(space)/float64(total) < 0.05 {
		a.add("characters", 15, "almost no whitespace")
	}
}

// addPatternScore applies the six pattern families at 15 points per match
func (a *Analysis) addPatternScore(message string) {
	families := []struct {
		name    string
		matches int
	}{
		{"url", len(urlPattern.FindAllString(message, -1))},
		{"email", len(emailPattern.FindAllString(message, -1))},
		{"phone", len(phonePattern.FindAllString(message, -1))},
		{"crypto_address", len(cryptoPattern.FindAllString(message, -1))},
		{"emoji_run", len(emojiRunPattern.FindAllString(message, -1))},
		{"char_run", countCharRuns(message, 5)},
	}
	for _, f := range families {
		if f.matches > 0 {
			a.add("patterns", 15*f.matches, fmt.Sprintf("pattern %s x%d", f.name, f.matches))
		}
	}
}

// addKeywordScore adds 20 points per distinct matched spam phrase
func (a *Analysis) addKeywordScore(message string) {
	lower := strings.ToLower(message)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			a.add("keywords", 20, "spam phrase: "+phrase)
		}
	}
}

// addRepetitionScore penalizes repeated words, repeated character sequences
// and runs of exclamation/question marks
func (a *Analysis) addRepetitionScore(message string) {
	// Word repetition: any word longer than 2 chars appearing more than
	// 3 times contributes (count-3)*5
	counts := map[string]int{}
	order := []string{}
	for _, w := range strings.Fields(strings.ToLower(message)) {
		w = strings.Trim(w, ".,!?;:")
		if len(w) <= 2 {
			continue
		}
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}
	for _, w := range order {
		if n := counts[w]; n > 3 {
			a.add("repetition", (n-3)*5, fmt.Sprintf("word %q repeated %d times", w, n))
		}
	}

	// Immediate sequence repetition ("abcabcabc"): 10 per match
	if n := countSequenceRepeats(message); n > 0 {
		a.add("repetition", 10*n, fmt.Sprintf("repeated sequence x%d", n))
	}

	// Runs of !!! or ???: 5 per run
	if runs := exclamationRunPattern.FindAllString(message, -1); len(runs) > 0 {
		a.add("repetition", 5*len(runs), fmt.Sprintf("punctuation run x%d", len(runs)))
	}
}

// addContextScore applies user-history heuristics
func (a *Analysis) addContextScore(message string, hctx *HistoryContext) {
	now := hctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	similar := 0
	recent := 0
	targetRepeat := false
	targets := ""

	for _, entry := range hctx.History {
		if message != "" && similarity(message, entry.Message) >= 0.8 {
			similar++
		}
		if now.Sub(entry.Timestamp) <= 5*time.Minute {
			recent++
		}
		if len(entry.Targets) > 0 && now.Sub(entry.Timestamp) <= 10*time.Minute {
			key := targetKey(entry.Targets)
			if targets == "" {
				targets = key
			} else if targets == key {
				targetRepeat = true
			}
		}
	}

	if similar > 0 {
		a.add("context", 15*similar, fmt.Sprintf("similar to %d recent messages", similar))
	}
	if recent > 10 {
		a.add("context", 25, "burst of recent messages")
	}
	if targetRepeat {
		a.add("context", 20, "repeated identical target set")
	}
}

// countCharRuns counts runs of threshold or more consecutive identical
// characters. Each run counts once.
func countCharRuns(text string, threshold int) int {
	runs := 0
	count := 1
	prev := rune(-1)
	counted := false
	for _, r := range text {
		if r == prev {
			count++
			if count >= threshold && !counted {
				runs++
				counted = true
			}
		} else {
			count = 1
			counted = false
			prev = r
		}
	}
	return runs
}

// countSequenceRepeats finds immediate repetitions of short character
// sequences (length 2-5) occurring 3 or more times in a row, e.g. "hahahaha"
// or "abcabcabc". Linear scan per sequence length; overlapping finds of the
// same stretch are counted once.
func countSequenceRepeats(text string) int {
	runes := []rune(text)
	n := len(runes)
	matches := 0
	covered := make([]bool, n)

	for seqLen := 2; seqLen <= 5; seqLen++ {
		for i := 0; i+seqLen*3 <= n; i++ {
			if covered[i] {
				continue
			}
			repeats := 1
			for j := i + seqLen; j+seqLen <= n; j += seqLen {
				if string(runes[j:j+seqLen]) == string(runes[i:i+seqLen]) {
					repeats++
				} else {
					break
				}
			}
			if repeats >= 3 {
				matches++
				for k := i; k < i+repeats*seqLen && k < n; k++ {
					covered[k] = true
				}
			}
		}
	}
	return matches
}

// similarity returns a Levenshtein-derived similarity ratio in [0,1]
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	dist := levenshtein([]rune(a), []rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	return 1 - float64(dist)/float64(longest)
}

// levenshtein computes edit distance with a two-row DP
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minOf(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// targetKey builds an order-independent key for a target set
func targetKey(targets []string) string {
	sorted := append([]string(nil), targets...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
