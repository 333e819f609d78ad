// go-kor
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-kor.
//
// go-kor is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-kor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-kor; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package pn532

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-kor/internal/transport"
	"github.com/ZaparooProject/go-kor/log"
)

const (
	// ntagPageSize is the NTAG21x page size
	ntagPageSize = 4
	// ntagReadSize is the number of bytes one NTAG READ returns
	ntagReadSize = 16
	// targetNumber is the logical target used for InDataExchange. Only one
	// target is ever listed.
	targetNumber = 1
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Timeout is the default timeout for operations
	Timeout time.Duration
	// RetryDelay is the pause between retries of a transient failure
	RetryDelay time.Duration
	// MaxRetries bounds the retries of a transient transport failure
	MaxRetries int
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:    1 * time.Second,
		RetryDelay: 10 * time.Millisecond,
		MaxRetries: 2,
	}
}

// FirmwareVersion is the answer to GetFirmwareVersion
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", f.IC, f.Version, f.Revision)
}

// Target is a tag found by DetectTag
type Target struct {
	UID  []byte
	ATQA uint16
	SAK  byte
}

// UIDString returns the UID as lowercase hex
func (t Target) UIDString() string {
	return hex.EncodeToString(t.UID)
}

// IsNTAG reports whether the SAK/ATQA pair matches an NTAG21x
func (t Target) IsNTAG() bool {
	return t.SAK == 0x00 && t.ATQA == 0x0044
}

// Device represents a PN532 NFC reader device
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. The
// polling monitor is the only caller in the station.
type Device struct {
	transport       Transport
	config          *DeviceConfig
	log             *zap.Logger
	firmwareVersion *FirmwareVersion
}

// New creates a new PN532 device with the given transport
func New(t Transport, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	device := &Device{
		transport: t,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	device.log = log.OrDefault(device.log, "pn532")

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Init checks the firmware and configures the SAM for normal mode
func (d *Device) Init(ctx context.Context) error {
	fw, err := d.GetFirmwareVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get firmware version: %w", err)
	}
	if err := d.SAMConfiguration(ctx); err != nil {
		return fmt.Errorf("failed to configure SAM: %w", err)
	}
	if err := d.SetPassiveActivationRetries(ctx, 0x01); err != nil {
		return fmt.Errorf("failed to configure RF retries: %w", err)
	}
	d.log.Info("reader ready",
		zap.String("firmware", fw.String()),
		zap.String("transport", string(d.transport.Type())))
	return nil
}

// FirmwareVersion returns the version read by the last Init, or nil
func (d *Device) FirmwareVersion() *FirmwareVersion {
	return d.firmwareVersion
}

// GetFirmwareVersion queries the chip version
func (d *Device) GetFirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	res, err := d.command(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, err
	}
	if len(res) != 5 {
		return nil, fmt.Errorf("%w: firmware version is %d bytes", ErrInvalidResponse, len(res))
	}
	d.firmwareVersion = &FirmwareVersion{IC: res[1], Version: res[2], Revision: res[3], Support: res[4]}
	return d.firmwareVersion, nil
}

// SAMConfiguration puts the SAM in normal mode with IRQ disabled
func (d *Device) SAMConfiguration(ctx context.Context) error {
	_, err := d.command(ctx, cmdSamConfiguration, []byte{samModeNormal, 0x14, 0x00})
	return err
}

// SetPassiveActivationRetries limits how long InListPassiveTarget waits
// for a tag. 0xFF retries forever, which would stall the poll loop.
func (d *Device) SetPassiveActivationRetries(ctx context.Context, retries byte) error {
	// ATR_REQ retries, PSL_REQ retries, passive activation retries
	_, err := d.command(ctx, cmdRFConfiguration, []byte{rfConfigMaxRetries, 0xFF, 0x01, retries})
	return err
}

// DetectTag lists one ISO14443A target. ErrNoTagDetected means the field
// is empty.
func (d *Device) DetectTag(ctx context.Context) (*Target, error) {
	res, err := d.command(ctx, cmdInListPassiveTarget, []byte{0x01, baudRate106TypeA})
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("%w: InListPassiveTarget response too short", ErrInvalidResponse)
	}
	if res[1] == 0 {
		return nil, ErrNoTagDetected
	}

	// Tg, ATQA(2), SAK, NFCIDLength, NFCID...
	if len(res) < 7 {
		return nil, fmt.Errorf("%w: target data too short", ErrInvalidResponse)
	}
	uidLen := int(res[6])
	if len(res) < 7+uidLen {
		return nil, fmt.Errorf("%w: UID length %d exceeds response", ErrInvalidResponse, uidLen)
	}
	target := &Target{
		ATQA: uint16(res[3])<<8 | uint16(res[4]),
		SAK:  res[5],
		UID:  append([]byte(nil), res[7:7+uidLen]...),
	}
	d.log.Debug("tag detected",
		zap.String("uid", target.UIDString()),
		zap.Uint16("atqa", target.ATQA),
		zap.Uint8("sak", target.SAK))
	return target, nil
}

// ReadPage reads one 4-byte NTAG page. The tag answers with four pages;
// only the first is returned.
func (d *Device) ReadPage(ctx context.Context, page uint8) ([]byte, error) {
	data, err := d.dataExchange(ctx, []byte{ntagRead, page})
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", page, err)
	}
	if len(data) < ntagReadSize {
		return nil, fmt.Errorf("%w: read of page %d returned %d bytes", ErrInvalidResponse, page, len(data))
	}
	return data[:ntagPageSize], nil
}

// WritePage writes one 4-byte NTAG page
func (d *Device) WritePage(ctx context.Context, page uint8, data []byte) error {
	if len(data) != ntagPageSize {
		return fmt.Errorf("%w: page data must be %d bytes, got %d", ErrInvalidParameter, ntagPageSize, len(data))
	}
	args := make([]byte, 0, 2+ntagPageSize)
	args = append(args, ntagWrite, page)
	args = append(args, data...)
	if _, err := d.dataExchange(ctx, args); err != nil {
		return fmt.Errorf("failed to write page %d: %w", page, err)
	}
	return nil
}

// InRelease releases the selected target so the next DetectTag starts
// from a clean state
func (d *Device) InRelease(ctx context.Context) error {
	res, err := d.command(ctx, cmdInRelease, []byte{0x00})
	if err != nil {
		return err
	}
	return checkStatus(cmdInRelease, res)
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

func (d *Device) dataExchange(ctx context.Context, args []byte) ([]byte, error) {
	res, err := d.command(ctx, cmdInDataExchange, append([]byte{targetNumber}, args...))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(cmdInDataExchange, res); err != nil {
		return nil, err
	}
	return res[2:], nil
}

// command sends cmd and checks the response code. Transient transport
// errors are retried; the retry wrapper gives up on permanent ones.
func (d *Device) command(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	cfg := transport.RetryConfig{
		Description: fmt.Sprintf("command 0x%02X", cmd),
		MaxRetries:  d.config.MaxRetries,
		RetryDelay:  d.config.RetryDelay,
		OnRetry: func(attempt int, cause error) error {
			d.log.Debug("retrying command",
				zap.Uint8("cmd", cmd), zap.Int("attempt", attempt), zap.Error(cause))
			return nil
		},
	}

	res, err := transport.WithRetry(ctx, cfg, func() ([]byte, bool, error) {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		res, err := d.transport.SendCommand(ctx, cmd, args)
		if err != nil {
			return nil, IsRetryable(err), err
		}
		return res, false, nil
	})
	if err != nil {
		return nil, err
	}

	if len(res) == 0 || res[0] != cmd+1 {
		return nil, fmt.Errorf("%w: unexpected response code for command 0x%02X", ErrInvalidResponse, cmd)
	}
	return res, nil
}

func checkStatus(cmd byte, res []byte) error {
	if len(res) < 2 {
		return fmt.Errorf("%w: missing status byte", ErrInvalidResponse)
	}
	if res[1]&0x3F != 0 {
		return &StatusError{Cmd: cmd, Status: res[1]}
	}
	return nil
}
