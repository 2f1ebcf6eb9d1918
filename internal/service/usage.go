package service

import (
	"context"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/accounting"
	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	"github.com/balu-dk/go-purifier-cms/internal/device"
	"github.com/balu-dk/go-purifier-cms/internal/validator"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ReportUsage applies a usage report addressed by customer id
func (s *Service) ReportUsage(ctx context.Context, customerID string, req UsageRequest) (*models.Customer, error) {
	now := s.clock.Now()
	s.devices.LogReport("", customerID, device.ActionUsageReport, req, now)

	if err := s.validateUsage(req); err != nil {
		return nil, err
	}
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, s.fail("usage", err)
	}
	return s.applyUsage(ctx, c, req, now)
}

// ReportDeviceUsage applies a usage report addressed by the device id of the
// installation
func (s *Service) ReportDeviceUsage(ctx context.Context, deviceID string, req UsageRequest) (*models.Customer, error) {
	now := s.clock.Now()
	s.devices.LogReport(deviceID, "", device.ActionUsageReport, req, now)

	if err := s.validateUsage(req); err != nil {
		return nil, err
	}
	c, err := s.store.GetCustomerByDevice(ctx, deviceID)
	if err != nil {
		return nil, s.fail("usage", err)
	}
	return s.applyUsage(ctx, c, req, now)
}

func (s *Service) validateUsage(req UsageRequest) error {
	if err := validator.ValidateRequest(req); err != nil {
		return s.fail("usage", err)
	}
	if err := req.checkPairs(); err != nil {
		return s.fail("usage", err)
	}
	return nil
}

func (s *Service) applyUsage(ctx context.Context, c *models.Customer, req UsageRequest, now time.Time) (*models.Customer, error) {
	updated, err := accounting.ApplyReading(*c, accounting.Reading{
		ReportedAt:  lo.FromPtr(req.ReportedAt),
		DailyLiters: req.DailyLiters,
		CycleLiters: req.CycleLiters,
		DailyHours:  req.DailyHours,
		CycleHours:  req.CycleHours,
	}, now)
	if err != nil {
		return nil, s.fail("usage", err)
	}

	if err := s.store.SaveUsage(ctx, &updated, now); err != nil {
		return nil, s.fail("usage", err)
	}
	updated.UpdatedAt = now

	entry := updated.LastUsage[len(updated.LastUsage)-1]
	s.metrics.ReadingApplied(entry.Source)

	logrus.WithFields(logrus.Fields{
		"customerID":  updated.ID,
		"source":      entry.Source,
		"cycleLiters": updated.CycleTotalLitersUsed,
	}).Debug("Usage reading applied")
	return &updated, nil
}
