// Copyright 2019 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vaultkeep/vaultkeep/blobstore"
	vkconfig "github.com/vaultkeep/vaultkeep/config"
	"github.com/vaultkeep/vaultkeep/repo"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultkeepd: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vaultkeepd",
	Short: "Administer a vaultkeep backup repository",
}

func init() {
	rootCmd.PersistentFlags().String("backend", "local", "Object store backend: local, s3, azure")
	rootCmd.PersistentFlags().String("path", "./vaultkeep-data", "Root directory for the local backend")
	rootCmd.PersistentFlags().String("bucket", "", "Bucket name for the s3 backend")
	rootCmd.PersistentFlags().String("prefix", "", "Key prefix for the s3/azure backend")
	rootCmd.PersistentFlags().String("region", "", "Region for the s3 backend")
	rootCmd.PersistentFlags().String("profile", "", "CLI profile name from vaultkeep.toml, overrides the flags above")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs instead of text")

	rootCmd.AddCommand(initCmd, statusCmd, verifyCmd, snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsGetCmd)

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	asJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	if asJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// invocationLog returns a logrus entry tagged with a fresh run id, so every
// line a single command emits can be grepped out of a shared log stream.
func invocationLog(cmd string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"run_id":  uuid.NewString(),
		"command": cmd,
	})
}

// loadRepoOptions reads the optional vaultkeep.yaml overlay from the
// current directory. A missing file yields the package defaults, same as
// config.LoadRepoOptions itself.
func loadRepoOptions() (vkconfig.RepoOptions, error) {
	return vkconfig.LoadRepoOptions("vaultkeep.yaml")
}

// resolveProfile applies a named or default CLI profile from vaultkeep.toml
// on top of the flag-derived backend/path/bucket/prefix/region. If
// profileName is empty, it falls back to the file's configured default
// profile (CLIProfiles.Active), so a vaultkeep.toml with a `default` entry
// is honored even when --profile is never passed. A missing vaultkeep.toml
// is not an error unless a specific profile was asked for by name.
func resolveProfile(profileName, backend, path, bucket, prefix, region string) (string, string, string, string, string, error) {
	profiles, err := vkconfig.LoadCLIProfiles("vaultkeep.toml")
	if err != nil {
		if profileName != "" {
			return "", "", "", "", "", fmt.Errorf("loading profile %q: %w", profileName, err)
		}
		return backend, path, bucket, prefix, region, nil
	}

	var p vkconfig.Profile
	var ok bool
	if profileName != "" {
		p, ok = profiles.Profiles[profileName]
		if !ok {
			return "", "", "", "", "", fmt.Errorf("no such profile: %q", profileName)
		}
	} else {
		p, ok = profiles.Active()
	}
	if !ok {
		return backend, path, bucket, prefix, region, nil
	}

	if p.Prefix != "" {
		path = p.Prefix
	}
	return p.Backend, path, p.Bucket, p.Prefix, p.Region, nil
}

func openStore(cmd *cobra.Command) (blobstore.Store, string, error) {
	backend, _ := cmd.Flags().GetString("backend")
	path, _ := cmd.Flags().GetString("path")
	bucket, _ := cmd.Flags().GetString("bucket")
	prefix, _ := cmd.Flags().GetString("prefix")
	region, _ := cmd.Flags().GetString("region")
	profileName, _ := cmd.Flags().GetString("profile")

	backend, path, bucket, prefix, region, err := resolveProfile(profileName, backend, path, bucket, prefix, region)
	if err != nil {
		return nil, "", err
	}

	switch backend {
	case "local":
		store, err := blobstore.NewLocalStore(path)
		return store, backend, err
	case "s3":
		if bucket == "" {
			return nil, "", fmt.Errorf("--bucket is required for the s3 backend")
		}
		ctx := context.Background()
		opts := []func(*awsconfig.LoadOptions) error{}
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(cfg)
		return blobstore.NewS3Store(client, bucket, prefix), backend, nil
	case "azure":
		return nil, "", fmt.Errorf("the azure backend is not available from this CLI")
	default:
		return nil, "", fmt.Errorf("unknown backend: %q", backend)
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new, empty repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := invocationLog("init")
		store, backend, err := openStore(cmd)
		if err != nil {
			return err
		}

		opts, err := loadRepoOptions()
		if err != nil {
			return fmt.Errorf("loading vaultkeep.yaml: %w", err)
		}

		r, err := repo.Init(cmd.Context(), store, backend, opts)
		if err != nil {
			return err
		}
		log.Info("repository initialized")
		fmt.Printf("initialized repository (backend=%s, blobs=%d)\n", backend, r.BlobCount())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Open a repository and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		opts, err := loadRepoOptions()
		if err != nil {
			return fmt.Errorf("loading vaultkeep.yaml: %w", err)
		}

		r, err := repo.Open(cmd.Context(), store, opts)
		if err != nil {
			return err
		}

		snaps, err := r.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}

		hist := r.ChunkSizeHistogram()
		fmt.Printf("blobs:     %d\n", r.BlobCount())
		fmt.Printf("snapshots: %d\n", len(snaps))
		fmt.Printf("chunk sizes: %s\n", hist.String())
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every indexed blob's pack still exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := invocationLog("verify")
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		opts, err := loadRepoOptions()
		if err != nil {
			return fmt.Errorf("loading vaultkeep.yaml: %w", err)
		}

		r, err := repo.Open(cmd.Context(), store, opts)
		if err != nil {
			return err
		}

		result, err := r.Verify(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("packs checked:     %d\n", result.PacksChecked)
		fmt.Printf("blobs checked:     %d\n", result.BlobsChecked)
		fmt.Printf("snapshots checked: %d\n", result.SnapshotsChecked)
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}

		if !result.OK() {
			log.WithField("errors", len(result.Errors)).Warn("verify found problems")
			return fmt.Errorf("verify found %d problem(s)", len(result.Errors))
		}
		log.Info("verify OK")
		fmt.Println("OK")
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect stored snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		opts, err := loadRepoOptions()
		if err != nil {
			return fmt.Errorf("loading vaultkeep.yaml: %w", err)
		}

		r, err := repo.Open(cmd.Context(), store, opts)
		if err != nil {
			return err
		}

		snaps, err := r.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}

		for _, s := range snaps {
			fmt.Printf("%s  %s  %s/%s/%s\n", s.ShortID(), s.Timestamp.Format("2006-01-02T15:04:05Z"), s.Tenant, s.Service, s.User)
		}
		return nil
	},
}

var snapshotsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Print one snapshot's tree and stats as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		opts, err := loadRepoOptions()
		if err != nil {
			return fmt.Errorf("loading vaultkeep.yaml: %w", err)
		}

		r, err := repo.Open(cmd.Context(), store, opts)
		if err != nil {
			return err
		}

		s, err := r.GetSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		data, err := s.Marshal()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
