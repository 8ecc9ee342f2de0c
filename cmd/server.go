/*
Copyright © 2024 wsa-backend authors
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator"
	"github.com/moizuddin404/wsa-backend/server"
	"github.com/moizuddin404/wsa-backend/shared"
	"github.com/moizuddin404/wsa-backend/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the wsa-backend API server",
	Long: `The server exposes the trusted-contact endpoints (including the
emergency alert flow) and the video tutorial catalog over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

var serverConfigFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config file for the server")
}

func serverConfig() *shared.ServerConfig {
	config := viper.New()

	if isDevEnv {
		serverConfigFile = devConfigFilePath()
	}

	if !utils.FileExist(serverConfigFile) {
		cobra.CheckErr(formattedError("server config file %q does not exist", serverConfigFile))
	}

	config.SetConfigFile(serverConfigFile)

	// MONGO_URI overrides whatever is in the config file, so the URI with
	// credentials doesn't need to live on disk.
	config.BindEnv("mongo.uri", "MONGO_URI")
	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	serverConfig := &shared.ServerConfig{}
	cobra.CheckErr(config.Unmarshal(serverConfig))

	if errs := validator.New().Struct(serverConfig); errs != nil {
		cobra.CheckErr(formattedError("invalid server config: %v", strings.Join(strings.Split(errs.Error(), "\n"), "; ")))
	}

	return serverConfig
}

func devConfigFilePath() string {
	configDir, err := os.Getwd()
	if err != nil {
		log.Panic(err)
	}

	fmt.Fprintln(os.Stderr, warningLabel, "running with the dev server config")

	return filepath.Join(configDir, "dev", "config", "server.yml")
}
