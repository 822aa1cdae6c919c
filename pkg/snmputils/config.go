// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"errors"
	"fmt"
	"slices"
)

// Config holds the SNMP options shared by the checks that can query a device over SNMP.
type Config struct {
	Version        string `long:"snmp-version" choice:"1" choice:"2c" choice:"3" description:"SNMP version" yaml:"snmp_version,omitempty" json:"snmp_version"`
	Community      string `long:"snmp-community" description:"SNMPv1/v2c community" yaml:"snmp_community,omitempty" json:"-"`
	MaxRepetitions int    `long:"snmp-max-repetitions" description:"GETBULK max-repetitions" yaml:"snmp_max_repetitions,omitempty" json:"snmp_max_repetitions"`
	User           User   `group:"SNMPv3 Options" yaml:"snmp_user,omitempty" json:"snmp_user"`
}

type User struct {
	Name          string `long:"snmp-user" description:"SNMPv3 user name" yaml:"name,omitempty" json:"name"`
	SecurityLevel string `long:"snmp-level" choice:"noAuthNoPriv" choice:"authNoPriv" choice:"authPriv" description:"SNMPv3 security level" yaml:"level,omitempty" json:"level"`
	AuthProto     string `long:"snmp-auth-proto" description:"SNMPv3 authentication protocol (md5, sha, sha224, sha256, sha384, sha512)" yaml:"auth_proto,omitempty" json:"auth_proto"`
	AuthKey       string `long:"snmp-auth-key" description:"SNMPv3 authentication passphrase" yaml:"auth_key,omitempty" json:"-"`
	PrivProto     string `long:"snmp-priv-proto" description:"SNMPv3 privacy protocol (des, aes, aes192, aes256, aes192c, aes256c)" yaml:"priv_proto,omitempty" json:"priv_proto"`
	PrivKey       string `long:"snmp-priv-key" description:"SNMPv3 privacy passphrase" yaml:"priv_key,omitempty" json:"-"`
}

// DefaultConfig returns the options used when none are given.
func DefaultConfig() Config {
	return Config{
		Version:        "2c",
		Community:      "public",
		MaxRepetitions: 25,
	}
}

var (
	authProtocols = []string{"", "none", "noAuth", "md5", "sha", "sha224", "sha256", "sha384", "sha512"}
	privProtocols = []string{"", "none", "noPriv", "des", "aes", "aes192", "aes256", "aes192c", "aes256c"}
)

// Validate checks the options without touching the network.
func (c Config) Validate() error {
	switch c.Version {
	case "1", "2c", "":
		if c.Community == "" {
			return errors.New("SNMP community is required for SNMPv1/v2c")
		}
	case "3":
		if c.User.Name == "" {
			return errors.New("SNMP user is required for SNMPv3")
		}
		if !slices.Contains(authProtocols, c.User.AuthProto) {
			return fmt.Errorf("unknown SNMPv3 authentication protocol '%s'", c.User.AuthProto)
		}
		if !slices.Contains(privProtocols, c.User.PrivProto) {
			return fmt.Errorf("unknown SNMPv3 privacy protocol '%s'", c.User.PrivProto)
		}
	default:
		return fmt.Errorf("invalid SNMP version '%s'", c.Version)
	}
	if c.MaxRepetitions < 0 {
		return errors.New("SNMP max repetitions must be positive")
	}
	return nil
}
