package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alechenninger/membergate/internal/config"
	"github.com/alechenninger/membergate/internal/identity"
	"github.com/alechenninger/membergate/internal/request"
)

// errNotValid makes the check command exit non-zero after printing its result
var errNotValid = errors.New("caller is not an active member")

// NewCheckCmd creates the check command
func NewCheckCmd(configFile *string) *cobra.Command {
	var certFile string

	cmd := &cobra.Command{
		Use:   "check [member-id]",
		Short: "Check whether an identity is an active member",
		Long: `Check an identity against the configured member store and print the result as JSON.

With a member id, reports whether that member is active. With --cert, derives the
identity key from a PEM certificate and validates it as a caller would be validated.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if certFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID := ""
			if len(args) == 1 {
				memberID = args[0]
			}
			return runCheck(cmd, *configFile, memberID, certFile)
		},
	}

	cmd.Flags().StringVar(&certFile, "cert", "", "PEM certificate file to derive the identity key from")

	return cmd
}

func runCheck(cmd *cobra.Command, configFile, memberID, certFile string) error {
	ctx := cmd.Context()

	cfg, _, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the result
	provider := config.NewProvider(cfg).WithLogOutput(cmd.ErrOrStderr())
	defer provider.Close()

	v, err := provider.Validator(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if certFile == "" {
		active, err := v.IsActiveMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := writeJSON(out, active); err != nil {
			return err
		}
		if isActive, _ := active.Get(); !isActive {
			return errNotValid
		}
		return nil
	}

	caller, err := callerFromFile(provider, certFile)
	if err != nil {
		return err
	}

	result, err := v.Validate(ctx, &request.Request{Caller: caller})
	if err != nil {
		return err
	}
	if err := writeJSON(out, result); err != nil {
		return err
	}
	if !result.OK() {
		return errNotValid
	}
	return nil
}

func callerFromFile(provider *config.Provider, certFile string) (*request.Caller, error) {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	cert, err := identity.ParseCertificate(string(data))
	if err != nil {
		return nil, err
	}

	extractor, err := provider.Extractor()
	if err != nil {
		return nil, err
	}

	id, err := extractor.IdentityKey(cert)
	if err != nil {
		return nil, err
	}

	return &request.Caller{ID: id, Certificate: string(data)}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
