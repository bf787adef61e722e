package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter relight.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".", config.ConfigFileName)
			if _, err := os.Stat(path); err == nil {
				return errors.Newf(errors.CategoryCLI, "%s already exists", config.ConfigFileName)
			}

			c := config.Default()
			c.Name = name
			if err := c.Save(path); err != nil {
				return err
			}

			success("wrote %s", path)
			info("edit it, then run: relight serve")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "app", "Project name")

	return cmd
}

func checkCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate relight.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = filepath.Join(".", config.ConfigFileName)
			}

			c, err := config.Load(path)
			if err != nil {
				return err
			}

			success("%s is valid", path)
			info("server address: %s", c.Server.Address)
			info("session store:  %s", c.Session.Store)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to relight.yaml")

	return cmd
}
