package main

import (
	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/logging"
	"github.com/nholik/flash-sentinel/internal/mockarray"
	"github.com/nholik/flash-sentinel/internal/server"
	"github.com/spf13/cobra"
)

type mockFlags struct {
	addr       string
	token      string
	drives     int
	pageLimit  int
	certFile   string
	keyFile    string
	selfSigned bool
	cacertOut  string
	logLevel   string
	product    string
}

func newMockCommand() *cobra.Command {
	var flags mockFlags
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve a mock FlashArray or FlashBlade REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMock(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "listen", "127.0.0.1:8443", "listen address")
	cmd.Flags().StringVar(&flags.token, "api-token", "", "accepted API token (random when empty)")
	cmd.Flags().IntVar(&flags.drives, "drives", 1, "number of drives to install")
	cmd.Flags().IntVar(&flags.pageLimit, "page-limit", 0, "cap every page at this many items")
	cmd.Flags().StringVar(&flags.certFile, "tls-cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&flags.keyFile, "tls-key", "", "TLS key file")
	cmd.Flags().BoolVar(&flags.selfSigned, "self-signed", false, "serve TLS with a generated certificate")
	cmd.Flags().StringVar(&flags.cacertOut, "cacert-out", "", "write the generated certificate to this file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "log level")
	cmd.Flags().StringVar(&flags.product, "product", string(config.FlashArray), "flasharray or flashblade")
	return cmd
}

func runMock(cmd *cobra.Command, flags mockFlags) error {
	logger := logging.NewWriter(cmd.ErrOrStderr(), flags.logLevel)
	product, err := config.ParseProduct(flags.product)
	if err != nil {
		return err
	}

	opts := []mockarray.Option{mockarray.WithLogger(logger)}
	if product == config.FlashBlade {
		opts = append(opts, mockarray.WithFlashBlade())
	}
	if flags.token != "" {
		opts = append(opts, mockarray.WithAPIToken(flags.token))
	}
	if flags.pageLimit > 0 {
		opts = append(opts, mockarray.WithPageLimit(flags.pageLimit))
	}
	mock := mockarray.New(opts...)
	if product == config.FlashArray {
		for i := 0; i < flags.drives; i++ {
			if err := mock.AddDrive(mockarray.DefaultDriveCapacity); err != nil {
				return err
			}
		}
	}
	logger.Info().Str("api_token", mock.APIToken()).Str("product", string(product)).Msg("mock array ready")

	return server.Serve(cmd.Context(), logger, mock, server.Options{
		Addr:       flags.addr,
		Label:      "mock",
		CertFile:   flags.certFile,
		KeyFile:    flags.keyFile,
		SelfSigned: flags.selfSigned,
		CACertOut:  flags.cacertOut,
	})
}
