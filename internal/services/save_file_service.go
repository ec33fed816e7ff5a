package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fiquest/internal/clock"
	"fiquest/internal/codec"
	"fiquest/internal/core"
	"fiquest/internal/delivery"
	applog "fiquest/internal/log"
)

// ErrNotDelivered is returned by Logout when the save file could not be
// handed to the user, in which case nothing is cleared.
var ErrNotDelivered = errors.New("save file was not delivered")

// Session is the part of the session manager the service drives.
type Session interface {
	Current() (core.PlayerProfile, bool)
	ExportLedger(format string) (string, error)
	ClearAll() error
}

// Deliverer hands a finished file to the user.
type Deliverer interface {
	Deliver(ctx context.Context, payload, filename, contentType string) delivery.Result
}

// SaveFileService ties export, import and delivery together.
type SaveFileService struct {
	codec   *codec.Codec
	session Session
	chain   Deliverer
	clock   clock.Clock
	logger  *slog.Logger
}

func NewSaveFileService(c *codec.Codec, session Session, chain Deliverer, clk clock.Clock, logger *slog.Logger) *SaveFileService {
	if clk == nil {
		clk = clock.System{}
	}
	return &SaveFileService{
		codec:   c,
		session: session,
		chain:   chain,
		clock:   clk,
		logger:  applog.OrDefault(logger).With(applog.FieldComponent, applog.ComponentSaveFile),
	}
}

// SaveToFile exports the active session and delivers it. An export error is
// returned; delivery problems are not, they are reported in the result.
func (s *SaveFileService) SaveToFile(ctx context.Context, format string, obfuscate bool, trigger string) (delivery.Result, error) {
	p, ok := s.session.Current()
	if !ok {
		return delivery.Result{}, core.ErrNoPlayer
	}

	payload, err := s.codec.Export(codec.ExportOptions{Format: format, Obfuscate: obfuscate, Trigger: trigger})
	if err != nil {
		s.logger.ErrorContext(ctx, "export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithPlayer(p.PlayerName).WithError(err).ToSlice()...)
		return delivery.Result{}, err
	}

	obfuscated := obfuscate && format == core.FormatJSON
	filename := codec.ExportFilename(p.PlayerName, format, obfuscated, s.clock.Now())
	contentType := core.ContentType(format)
	if obfuscated {
		contentType = core.ContentType(core.FormatText)
	}

	res := s.chain.Deliver(ctx, payload, filename, contentType)
	s.logResult(ctx, res)
	return res, nil
}

// ExportLedger delivers the net worth ledger alone as json, csv, or the
// excel-shaped workbook.
func (s *SaveFileService) ExportLedger(ctx context.Context, format string) (delivery.Result, error) {
	p, ok := s.session.Current()
	if !ok {
		return delivery.Result{}, core.ErrNoPlayer
	}
	payload, err := s.session.ExportLedger(format)
	if err != nil {
		return delivery.Result{}, err
	}

	ext := format
	if format == core.FormatExcel {
		ext = core.FormatJSON
	}
	filename := fmt.Sprintf("fiquest_%s_networth_%s.%s", core.SanitizeName(p.PlayerName), clock.FilenameDate(s.clock.Now()), ext)

	res := s.chain.Deliver(ctx, payload, filename, core.ContentType(ext))
	s.logResult(ctx, res)
	return res, nil
}

// LoadFromFile imports the save file at path. A name containing
// "_encrypted" marks it as obfuscated.
func (s *SaveFileService) LoadFromFile(path string) (codec.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return codec.Result{}, fmt.Errorf("read save file: %w", err)
	}
	res := s.codec.ImportAll(string(data), codec.IsObfuscatedFilename(filepath.Base(path)))
	if res.Success {
		s.logger.Info("save file loaded", applog.FieldFilename, path, applog.FieldPlayer, res.PlayerName)
	}
	return res, nil
}

// Logout optionally saves a file first, then clears every fiquest_ key.
// When the export or its delivery fails the data is kept and an error is
// returned.
func (s *SaveFileService) Logout(ctx context.Context, exportFirst bool) error {
	if exportFirst {
		res, err := s.SaveToFile(ctx, core.FormatJSON, false, core.TriggerLogout)
		if err != nil && !errors.Is(err, core.ErrNoPlayer) {
			return fmt.Errorf("export before logout: %w", err)
		}
		if err == nil && !res.Succeeded {
			return fmt.Errorf("%w: %s", ErrNotDelivered, res.Message)
		}
	}

	if err := s.session.ClearAll(); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	s.logger.InfoContext(ctx, "logged out", applog.FieldOperation, applog.OpClear)
	return nil
}

func (s *SaveFileService) logResult(ctx context.Context, res delivery.Result) {
	fields := applog.NewFields().
		WithOperation(applog.OpDeliver).
		WithDelivery(string(res.Strategy), res.Filename, res.Succeeded)
	if res.FellBack() {
		fields["selected"] = string(res.Selected)
	}
	if res.Succeeded {
		s.logger.InfoContext(ctx, "save file delivered", fields.ToSlice()...)
		return
	}
	s.logger.WarnContext(ctx, "save file not delivered",
		fields.WithErrorType(applog.ErrorTypeDelivery).ToSlice()...)
}
