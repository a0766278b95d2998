//go:build darwin

package hid

import (
	"fmt"
	"time"

	sshid "github.com/sstallion/go-hid"
)

// macOS has no hidraw equivalent, so the darwin manager goes through
// the hidapi bindings instead.

type hidapiManager struct{}

func newManager() (Manager, error) {
	if err := sshid.Init(); err != nil {
		return nil, err
	}
	return &hidapiManager{}, nil
}

func (m *hidapiManager) List() ([]Info, error) {
	var out []Info
	err := sshid.Enumerate(sshid.VendorIDAny, sshid.ProductIDAny, func(info *sshid.DeviceInfo) error {
		out = append(out, Info{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Product:      info.ProductStr,
			Manufacturer: info.MfrStr,
			SerialNumber: info.SerialNbr,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *hidapiManager) Open(info Info) (Device, error) {
	d, err := sshid.OpenPath(info.Path)
	if err != nil {
		return nil, err
	}
	return &hidapiDevice{d: d, info: info}, nil
}

func (m *hidapiManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.VendorID == vendorID && info.ProductID == productID {
			return m.Open(info)
		}
	}
	return nil, fmt.Errorf("hid: %04x:%04x: %w", vendorID, productID, ErrDeviceNotFound)
}

type hidapiDevice struct {
	d    *sshid.Device
	info Info
}

func (d *hidapiDevice) Write(p []byte) (int, error) { return d.d.Write(p) }
func (d *hidapiDevice) Read(p []byte) (int, error)  { return d.d.Read(p) }

func (d *hidapiDevice) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	return d.d.ReadWithTimeout(p, timeout)
}

func (d *hidapiDevice) SendFeatureReport(p []byte) (int, error) { return d.d.SendFeatureReport(p) }
func (d *hidapiDevice) GetFeatureReport(p []byte) (int, error)  { return d.d.GetFeatureReport(p) }
func (d *hidapiDevice) Info() Info                              { return d.info }
func (d *hidapiDevice) Close() error                            { return d.d.Close() }
