package mqtt

import "fmt"

// Topics derives the OpenWB 2.x topic tree from the configured base
// topic and chargepoint id.
type Topics struct {
	Prefix      string
	Chargepoint int
}

// ChargepointGet is the prefix of the telemetry topics, trailing slash
// included so the remainder is the bare key.
func (t Topics) ChargepointGet() string {
	return fmt.Sprintf("%s/chargepoint/%d/get/", t.Prefix, t.Chargepoint)
}

func (t Topics) ChargepointWildcard() string {
	return t.ChargepointGet() + "#"
}

func (t Topics) ChargeMode() string {
	return t.Prefix + "/global/ChargeMode"
}

func (t Topics) PVGet() string {
	return t.Prefix + "/pv/get/"
}

func (t Topics) PVWildcard() string {
	return t.PVGet() + "#"
}

func (t Topics) SetChargeMode() string {
	return fmt.Sprintf("%s/chargepoint/%d/set/chargemode", t.Prefix, t.Chargepoint)
}

func (t Topics) SetCurrent() string {
	return fmt.Sprintf("%s/chargepoint/%d/set/current", t.Prefix, t.Chargepoint)
}

// Subscriptions lists every topic filter the bridge listens on.
func (t Topics) Subscriptions() map[string]byte {
	return map[string]byte{
		t.ChargepointWildcard(): 0,
		t.ChargeMode():          0,
		t.PVWildcard():          0,
	}
}
