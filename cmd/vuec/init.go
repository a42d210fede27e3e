package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recera/vuec/cmd/vuec/internal/config"
)

const starterComponent = `<script setup>
import { ref } from 'vue'

const count = ref(0)
</script>

<template>
  <button @click="count++">Clicked {{ count }} times</button>
</template>
`

func newInitCommand(g *globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vuec.yaml in the project directory",
		Long: `Writes the default vuec.yaml and, when the source directory does not
exist yet, a starter component.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, g.project, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing vuec.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()
	configPath := filepath.Join(dir, config.FileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	if err := config.Save(cfg, dir); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	fmt.Fprintf(out, "✨ Created %s\n", configPath)

	srcDir := filepath.Join(dir, cfg.SrcDir)
	if _, err := os.Stat(srcDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(srcDir, 0755); err != nil {
			return err
		}
		appPath := filepath.Join(srcDir, "App.vue")
		if err := os.WriteFile(appPath, []byte(starterComponent), 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "✨ Created %s\n", appPath)
	}

	fmt.Fprintln(out, "\n📦 Next: vuec compile, or vuec serve for hot module replacement")
	return nil
}
