package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kasuboski/reelwatch/pkg/quality"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "manage quality profiles",
}

var (
	profileName     string
	profileAllowed  string
	profileCutoff   int64
	profileUpgrade  bool
	profileMinSize  int64
	profileMaxSize  int64
	profileLanguage string
)

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a quality profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		allowed, err := parseIDList(profileAllowed)
		if err != nil {
			return fmt.Errorf("--allowed: %w", err)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.store.QualityProfiles().Create(ctx, quality.QualityProfile{
			Name:           profileName,
			Allowed:        allowed,
			CutoffID:       profileCutoff,
			UpgradeAllowed: profileUpgrade,
			MinSizeMB:      profileMinSize,
			MaxSizeMB:      profileMaxSize,
			Language:       profileLanguage,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created quality profile %d: %s\n", id, profileName)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "list quality profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		profiles, err := a.store.QualityProfiles().List(ctx)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Printf("%d\t%s\tcutoff=%d\tupgrade=%v\n", p.ID, p.Name, p.CutoffID, p.UpgradeAllowed)
		}
		return nil
	},
}

func parseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileName, "name", "", "profile name")
	profileCreateCmd.Flags().StringVar(&profileAllowed, "allowed", "", "comma-separated quality tier ids, best-first")
	profileCreateCmd.Flags().Int64Var(&profileCutoff, "cutoff", 0, "quality tier id that stops upgrade search")
	profileCreateCmd.Flags().BoolVar(&profileUpgrade, "upgrade", true, "allow upgrading an already-imported file")
	profileCreateCmd.Flags().Int64Var(&profileMinSize, "min-size-mb", 0, "reject releases smaller than this")
	profileCreateCmd.Flags().Int64Var(&profileMaxSize, "max-size-mb", 0, "reject releases larger than this")
	profileCreateCmd.Flags().StringVar(&profileLanguage, "language", "", "required audio language")
	profileCreateCmd.MarkFlagRequired("name")
	profileCreateCmd.MarkFlagRequired("allowed")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd)
	rootCmd.AddCommand(profileCmd)
}
