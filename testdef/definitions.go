package testdef

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIsAccepted  = true
	DefaultFinalStatus = "finished"
)

// TestFile is the parsed content of a tests file. Tests are in the order they appear.
type TestFile struct {
	Tests []TestDefinition
}

// TestDefinition is one named test of a spec.
type TestDefinition struct {
	Name   string
	Inputs ldvalue.Value // an empty object if the definition had none

	// Expectations is nil if the definition had no expectations key. That is reported as a
	// malformed test when the test runs, rather than failing the whole file.
	Expectations *Expectations
}

type Expectations struct {
	IsAccepted  bool
	FinalStatus string
	Outputs     []OutputExpectation // nil if no output checks were requested
	HasOutputs  bool
}

// OutputExpectation describes one output that the job should have produced. Only ID is
// required; every other field is an additional check on the matched output.
type OutputExpectation struct {
	// ID starting with "/" is a path, compared with the output's href; anything else is
	// compared with the output's ID or name.
	ID          string
	MimeType    ldvalue.OptionalString
	SizeInBytes ldvalue.OptionalInt
	Content     ldvalue.OptionalString
	Contains    []string
	JSON        ldvalue.Value // compared structurally with the content; null means no check
	Metadata    ldvalue.Value // every key here must be present and equal; null means no check
}

// IsPath returns true if the ID is an absolute path.
func (o OutputExpectation) IsPath() bool {
	return strings.HasPrefix(o.ID, "/")
}

// NeedsContent returns true if checking this expectation requires downloading the output.
func (o OutputExpectation) NeedsContent() bool {
	return o.Content.IsDefined() || len(o.Contains) > 0 || !o.JSON.IsNull()
}

type rawTestDefinition struct {
	Inputs       yamlValue        `yaml:"inputs"`
	Expectations *rawExpectations `yaml:"expectations"`
}

type rawExpectations struct {
	IsAccepted  *bool                  `yaml:"isAccepted"`
	FinalStatus *string                `yaml:"finalStatus"`
	Outputs     []rawOutputExpectation `yaml:"outputs"`
}

type rawOutputExpectation struct {
	ID          string    `yaml:"id"`
	MimeType    *string   `yaml:"mimeType"`
	SizeInBytes *int      `yaml:"sizeInBytes"`
	Content     *string   `yaml:"content"`
	Contains    []string  `yaml:"contains"`
	JSON        yamlValue `yaml:"json"`
	Metadata    yamlValue `yaml:"metadata"`
}

// LoadTestFile reads and parses a tests file.
func LoadTestFile(path string) (*TestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tf, err := ParseTestFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// ParseTestFile parses the YAML content of a tests file, which must be a mapping with a
// "tests" key whose value maps each test name to its definition.
func ParseTestFile(data []byte) (*TestFile, error) {
	var doc struct {
		Tests yaml.Node `yaml:"tests"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed YAML: %w", err)
	}
	if doc.Tests.Kind == 0 {
		return nil, fmt.Errorf("does not have a tests key")
	}
	if doc.Tests.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: tests must be a mapping of test name to test definition", doc.Tests.Line)
	}

	tf := &TestFile{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(doc.Tests.Content); i += 2 {
		keyNode, valueNode := doc.Tests.Content[i], doc.Tests.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return nil, fmt.Errorf("line %d: duplicate test name %q", keyNode.Line, name)
		}
		seen[name] = true

		def, err := parseTestDefinition(name, valueNode)
		if err != nil {
			return nil, fmt.Errorf("test %q (line %d): %w", name, keyNode.Line, err)
		}
		tf.Tests = append(tf.Tests, def)
	}
	return tf, nil
}

func parseTestDefinition(name string, node *yaml.Node) (TestDefinition, error) {
	if node.Kind != yaml.MappingNode {
		return TestDefinition{}, fmt.Errorf("definition must be a mapping")
	}
	var raw rawTestDefinition
	if err := node.Decode(&raw); err != nil {
		return TestDefinition{}, err
	}

	// Inputs that are not a mapping are sent as they are: a test may expect the API to
	// reject them.
	def := TestDefinition{Name: name, Inputs: raw.Inputs.Value}
	if def.Inputs.IsNull() {
		def.Inputs = ldvalue.ObjectBuild().Build()
	}

	if !mappingHasKey(node, "expectations") {
		return def, nil
	}
	ex := &Expectations{IsAccepted: DefaultIsAccepted, FinalStatus: DefaultFinalStatus}
	if raw.Expectations != nil {
		if raw.Expectations.IsAccepted != nil {
			ex.IsAccepted = *raw.Expectations.IsAccepted
		}
		if raw.Expectations.FinalStatus != nil {
			ex.FinalStatus = *raw.Expectations.FinalStatus
		}
		if raw.Expectations.Outputs != nil {
			ex.HasOutputs = true
			for i, ro := range raw.Expectations.Outputs {
				o, err := ro.toOutputExpectation()
				if err != nil {
					return TestDefinition{}, fmt.Errorf("output expectation %d: %w", i+1, err)
				}
				ex.Outputs = append(ex.Outputs, o)
			}
		}
	}
	def.Expectations = ex
	return def, nil
}

func (ro rawOutputExpectation) toOutputExpectation() (OutputExpectation, error) {
	if ro.ID == "" {
		return OutputExpectation{}, fmt.Errorf("id is required")
	}
	o := OutputExpectation{
		ID:       ro.ID,
		Contains: ro.Contains,
		JSON:     ro.JSON.Value,
		Metadata: ro.Metadata.Value,
	}
	if ro.MimeType != nil {
		o.MimeType = ldvalue.NewOptionalString(*ro.MimeType)
	}
	if ro.SizeInBytes != nil {
		o.SizeInBytes = ldvalue.NewOptionalInt(*ro.SizeInBytes)
	}
	if ro.Content != nil {
		o.Content = ldvalue.NewOptionalString(*ro.Content)
	}
	if !o.Metadata.IsNull() && o.Metadata.Type() != ldvalue.ObjectType {
		return OutputExpectation{}, fmt.Errorf("metadata must be a mapping")
	}
	return o, nil
}

func mappingHasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// yamlValue decodes any YAML value into an ldvalue.Value, so that inputs and expected JSON
// can be sent and compared exactly as they would be as JSON.
type yamlValue struct {
	ldvalue.Value
}

func (v *yamlValue) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v.Value = ldvalue.CopyArbitraryValue(normalizeYAML(raw))
	return nil
}

// normalizeYAML converts the values the YAML decoder can produce, but JSON cannot represent,
// into JSON-compatible ones.
func normalizeYAML(raw interface{}) interface{} {
	switch x := raw.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, v := range x {
			out[k] = normalizeYAML(v)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, v := range x {
			out[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, v := range x {
			out[i] = normalizeYAML(v)
		}
		return out
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}
