package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/evalopt"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the run ID.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tickers are the entities to plan for, in order.
	Tickers []string `yaml:"tickers"`

	// Steps restricts the stage template. Empty means every kind.
	Steps []string `yaml:"steps,omitempty"`

	// Routing overrides the default routing table.
	Routing *config.Routing `yaml:"routing,omitempty"`

	// MaxBullets caps summary lines. Zero means the default.
	MaxBullets int `yaml:"max_bullets,omitempty"`

	// Concurrency is the engine's chain parallelism. Zero means 1.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Rubric overrides the default rubric.
	Rubric []evalopt.Criterion `yaml:"rubric,omitempty"`

	// Fixtures are the canned source data.
	Fixtures Fixtures `yaml:"fixtures"`

	// ExpectPlanError names the graph error code planning must fail with.
	// When set, nothing is executed.
	ExpectPlanError string `yaml:"expect_plan_error,omitempty"`

	// Assertions validate the trace, results and ledger.
	Assertions []Assertion `yaml:"assertions"`
}

// Fixtures are per-symbol price and news data.
type Fixtures struct {
	Prices map[string]PriceFixture `yaml:"prices,omitempty"`
	News   map[string][]NewsFixture `yaml:"news,omitempty"`

	// Fail lists symbols whose sources return an error.
	Fail []string `yaml:"fail,omitempty"`
}

// PriceFixture is a daily close series. Either Closes or Ramp is set.
type PriceFixture struct {
	Start  string    `yaml:"start,omitempty"` // YYYY-MM-DD
	Closes []float64 `yaml:"closes,omitempty"`
	Ramp   *Ramp     `yaml:"ramp,omitempty"`
}

// Ramp generates N closes from From in steps of Step.
type Ramp struct {
	N    int     `yaml:"n"`
	From float64 `yaml:"from"`
	Step float64 `yaml:"step"`
}

// NewsFixture is one canned headline.
type NewsFixture struct {
	Title  string `yaml:"title"`
	Source string `yaml:"source,omitempty"`
	Link   string `yaml:"link,omitempty"`
}

// Assertion validates one property of a run.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Tasks is the expected relative order (trace_order).
	Tasks []string `yaml:"tasks,omitempty"`

	// Task names a task (status).
	Task string `yaml:"task,omitempty"`

	// Status is the expected outcome status (status, trace_count).
	Status string `yaml:"status,omitempty"`

	// Count is the expected number of outcomes (trace_count).
	Count int `yaml:"count,omitempty"`

	// Entity names a result or ledger key (result_contains, no_result,
	// ledger_score, no_ledger).
	Entity string `yaml:"entity,omitempty"`

	// Text must appear in the entity's body (result_contains).
	Text string `yaml:"text,omitempty"`

	// Min and Max bound the remembered score (ledger_score).
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
	AssertStatus         = "status"
	AssertResultContains = "result_contains"
	AssertNoResult       = "no_result"
	AssertLedgerScore    = "ledger_score"
	AssertNoLedger       = "no_ledger"
)

var knownAssertions = map[string]bool{
	AssertTraceOrder:     true,
	AssertTraceCount:     true,
	AssertStatus:         true,
	AssertResultContains: true,
	AssertNoResult:       true,
	AssertLedgerScore:    true,
	AssertNoLedger:       true,
}

const fixtureDateLayout = "2006-01-02"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}

	for sym, p := range s.Fixtures.Prices {
		if p.Ramp != nil && len(p.Closes) > 0 {
			return fmt.Errorf("prices.%s: closes and ramp are mutually exclusive", sym)
		}
		if p.Start != "" {
			if _, err := time.Parse(fixtureDateLayout, p.Start); err != nil {
				return fmt.Errorf("prices.%s: start: %w", sym, err)
			}
		}
	}

	for i, a := range s.Assertions {
		if !knownAssertions[a.Type] {
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
		switch a.Type {
		case AssertTraceOrder:
			if len(a.Tasks) < 2 {
				return fmt.Errorf("assertion %d: trace_order needs at least two tasks", i)
			}
		case AssertStatus:
			if a.Task == "" || a.Status == "" {
				return fmt.Errorf("assertion %d: status needs task and status", i)
			}
		case AssertResultContains, AssertNoResult, AssertLedgerScore, AssertNoLedger:
			if a.Entity == "" {
				return fmt.Errorf("assertion %d: %s needs entity", i, a.Type)
			}
		}
	}
	return nil
}
