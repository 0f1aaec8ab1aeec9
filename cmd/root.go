// File: cmd/root.go
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"showfiles/pkg/combine"
	"showfiles/pkg/logging"
	"showfiles/pkg/version"
)

const envPrefix = "SHOWFILES"

// RootCmd is the base command when called without any subcommands.
var RootCmd = NewRootCmd()

// NewRootCmd builds the show-files command with its own configuration
// registry, so tests can run it in isolation.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "show-files [flags] [target]",
		Short: "Print the files of a directory tree with headers",
		Long: `show-files prints every text file under a directory, each preceded by a
header naming it. Files are taken from git when the directory is inside a
repository, .gitignore rules are honored, and binary, oversized or overlong
files are replaced by a one-line note explaining why they were skipped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			if err := logging.Setup(v.GetBool("debug"), v.GetBool("silent"), version.Name, version.Get().Version); err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				logging.Logger.Debug("Using config file", zap.String("file", used))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := argumentsFrom(v)
			if len(args) > 0 {
				a.Target = args[0]
			}
			logging.Logger.Debug("Resolved arguments", zap.Any("arguments", a))
			return combine.Execute(a, logging.Logger)
		},
	}

	f := cmd.Flags()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/show-files/config.yaml or ./.show-files.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	f.BoolP("silent", "s", false, "only log errors")
	f.BoolP("long", "l", false, "show files of any length")
	f.Int("max-lines", combine.DefaultMaxLines, "skip files longer than this outside long mode")
	f.Bool("less", false, "send output through $PAGER (default less -R) when stdout is a terminal")
	f.Bool("color", false, "force colored output")
	f.BoolP("follow", "f", false, "follow symbolic links")
	f.Bool("progress", false, "log each file as it is processed")
	f.Bool("dry-run", false, "print headers and line counts only")
	f.BoolP("number", "n", false, "number content lines")
	f.Bool("full-path", false, "print absolute paths in headers")
	f.BoolP("tree", "t", false, "print the directory tree first")
	f.StringArray("include", nil, "only show paths matching these globs (repeatable, space separated)")
	f.StringArray("exclude", nil, "hide paths matching these globs (repeatable, space separated)")
	f.String("max-size", "", "skip files larger than this, e.g. 500K or 10M")
	f.StringP("output", "o", "", "write output to a file")
	f.String("ignore-file", "", "additional ignore file whose rules are used as written")
	f.Bool("no-gitignore", false, "do not read .gitignore files")
	f.Int("max-depth", 0, "limit directory depth (0 means unlimited)")
	f.IntP("jobs", "j", 1, "files processed in parallel")
	f.BoolP("clipboard", "c", false, "copy output to the clipboard")
	f.Bool("force-ignore-emulation", false, "walk the filesystem even inside a git repository")
	f.BoolP("ignore-case", "i", false, "match patterns case-insensitively")
	f.BoolP("metadata", "m", false, "print size, mode, owner and modification time")
	f.Bool("checksum", false, "print the SHA-256 of each file")
	f.String("newer-than", "", "only files modified at or after DATE (today, yesterday, thisweek, lastweek, 2006-01-02)")
	f.String("older-than", "", "only files modified before DATE")
	f.Bool("interactive", false, "ask before showing each file")

	cobra.CheckErr(v.BindPFlags(cmd.PersistentFlags()))
	cobra.CheckErr(v.BindPFlags(f))
	return cmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case fileExists(".show-files.yaml"):
		v.SetConfigFile(".show-files.yaml")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(filepath.Join(home, ".config", "show-files"))
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func argumentsFrom(v *viper.Viper) combine.Arguments {
	return combine.Arguments{
		Include:     v.GetStringSlice("include"),
		Exclude:     v.GetStringSlice("exclude"),
		IgnoreFile:  v.GetString("ignore-file"),
		NoGitignore: v.GetBool("no-gitignore"),
		ForceWalk:   v.GetBool("force-ignore-emulation"),
		IgnoreCase:  v.GetBool("ignore-case"),
		MaxDepth:    v.GetInt("max-depth"),
		MaxSize:     v.GetString("max-size"),
		MaxLines:    v.GetInt("max-lines"),
		NewerThan:   v.GetString("newer-than"),
		OlderThan:   v.GetString("older-than"),
		Long:        v.GetBool("long"),
		Color:       v.GetBool("color"),
		Metadata:    v.GetBool("metadata"),
		Checksum:    v.GetBool("checksum"),
		Number:      v.GetBool("number"),
		FullPath:    v.GetBool("full-path"),
		DryRun:      v.GetBool("dry-run"),
		Interactive: v.GetBool("interactive"),
		Follow:      v.GetBool("follow"),
		Tree:        v.GetBool("tree"),
		Progress:    v.GetBool("progress"),
		Silent:      v.GetBool("silent"),
		Pager:       v.GetBool("less"),
		Clipboard:   v.GetBool("clipboard"),
		Output:      v.GetString("output"),
		Jobs:        v.GetInt("jobs"),
	}
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
