package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/azure/filedrop/internal/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	uploadName string
	outputPath string
)

var root = &cobra.Command{
	Use:           "filedrop-cli",
	Short:         "Upload, list, download and delete files on a filedrop server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upload = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name := uploadName
		if name == "" {
			name = filepath.Base(args[0])
		}
		stored, err := client.New(serverURL).Upload(name, data)
		if err != nil {
			return err
		}
		fmt.Println(stored)
		return nil
	},
}

var list = &cobra.Command{
	Use:   "list",
	Short: "List stored files",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		names, err := client.New(serverURL).List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var get = &cobra.Command{
	Use:   "get <name>",
	Short: "Download a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := client.New(serverURL).Download(args[0])
		if err != nil {
			return err
		}
		if outputPath == "" || outputPath == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(outputPath, data, 0o644)
	},
}

var remove = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return client.New(serverURL).Delete(args[0])
	},
}

func main() {
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("FILEDROP_URL", "http://localhost:8080"), "Base URL of the filedrop server")
	upload.Flags().StringVar(&uploadName, "name", "", "Name to store the file under (defaults to the file's base name)")
	get.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this path instead of stdout")

	root.AddCommand(upload, list, get, remove)

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
