package observability

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertFile struct {
	Groups []alertGroup `yaml:"groups"`
}

var metricName = regexp.MustCompile(`ledger_[a-z_]+`)

func TestLedgerAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "ledger.yml"))
	require.NoError(t, err)

	var file alertFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	require.Len(t, file.Groups, 1)
	group := file.Groups[0]
	require.Equal(t, "ledger", group.Name)

	expected := map[string]string{
		"LedgerHighErrorRate":       "critical",
		"LedgerPostingLatency":      "warning",
		"LedgerIntegrityCritical":   "critical",
		"LedgerIntegrityJobFailing": "warning",
	}
	require.Len(t, group.Rules, len(expected))

	known := map[string]bool{
		"ledger_http_requests_total":             true,
		"ledger_posting_duration_seconds_bucket": true,
		"ledger_integrity_warnings_total":        true,
		"ledger_jobs_failures_total":             true,
	}
	for _, rule := range group.Rules {
		severity, ok := expected[rule.Alert]
		require.Truef(t, ok, "unexpected rule %q", rule.Alert)
		require.Equal(t, severity, rule.Labels["severity"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["description"], rule.Alert)
		require.NotEmpty(t, rule.Expr, rule.Alert)
		require.NotEmpty(t, rule.For, rule.Alert)
		for _, name := range metricName.FindAllString(rule.Expr, -1) {
			require.Truef(t, known[name], "rule %s references unknown metric %s", rule.Alert, name)
		}
	}
}
