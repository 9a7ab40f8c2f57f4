package commands

import (
	"fmt"
	"io"
	"os"
	"slices"

	"cltv-rfm/internal/pipeline"
	"cltv-rfm/internal/report"
	"cltv-rfm/internal/segment"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	ruleNames []string
	rulesFile string
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Export customer id lists for segment and category target rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := selectRules()
		if err != nil {
			return err
		}

		records, source, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		res, err := pipeline.RunRFM(records, cfg.PipelineOptions())
		if err != nil {
			return err
		}

		ex := newExporter("targets", source)
		recordRFM(ex.manifest, res)
		for _, rule := range rules {
			ids := res.Targets(rule)
			ex.manifest.SetCount("target_"+rule.Name, len(ids))
			if err := ex.save(rule.Name, ".csv", func(w io.Writer) error { return report.WriteIDsCSV(w, ids) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d customers\n", rule.Name, len(ids))
		}
		return ex.finish()
	},
}

// selectRules resolves the --rule names against the built-in rules and any
// rules loaded from --rules.
func selectRules() ([]segment.Rule, error) {
	custom, err := loadRules(rulesFile)
	if err != nil {
		return nil, err
	}
	if len(ruleNames) == 0 {
		if len(custom) > 0 {
			return custom, nil
		}
		return []segment.Rule{segment.NewBrandRule, segment.DiscountRule}, nil
	}

	var out []segment.Rule
	for _, name := range ruleNames {
		if i := slices.IndexFunc(custom, func(r segment.Rule) bool { return r.Name == name }); i >= 0 {
			out = append(out, custom[i])
			continue
		}
		r, err := segment.LookupRule(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func loadRules(path string) ([]segment.Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules []segment.Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rules %s: every rule needs a name", path)
		}
		for _, s := range r.Segments {
			if !slices.Contains(segment.Segments, s) {
				return nil, fmt.Errorf("rule %s: unknown segment %q", r.Name, s)
			}
		}
	}
	return rules, nil
}

func init() {
	targetsCmd.Flags().StringSliceVar(&ruleNames, "rule", nil, fmt.Sprintf("rules to export (built-in: %v)", segment.RuleNames()))
	targetsCmd.Flags().StringVar(&rulesFile, "rules", "", "YAML file with additional rules")
	rootCmd.AddCommand(targetsCmd)
}
