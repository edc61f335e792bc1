package explorer

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// SourceInfo is the explorer's record of a contract's published source.
type SourceInfo struct {
	ContractName    string `json:"ContractName"`
	SourceCode      string `json:"SourceCode"`
	CompilerVersion string `json:"CompilerVersion"`
	Proxy           string `json:"Proxy"` // "1" when the contract is a proxy
	Implementation  string `json:"Implementation"`
	LicenseType     string `json:"LicenseType"`
}

// Verified reports whether source code is published for the contract.
func (s *SourceInfo) Verified() bool {
	return s.SourceCode != ""
}

// IsProxy reports whether the explorer flagged the contract as a proxy.
func (s *SourceInfo) IsProxy() bool {
	return s.Proxy == "1"
}

// CreationInfo records when and by whom a contract was deployed.
type CreationInfo struct {
	ContractAddress string `json:"contractAddress"`
	CreatorAddress  string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
	Timestamp       string `json:"timestamp"` // unix seconds, may be empty on older explorers
}

// AgeDays returns whole days since deployment, 0 when the explorer did
// not report a creation timestamp.
func (ci *CreationInfo) AgeDays(now time.Time) int {
	if ci.Timestamp == "" {
		return 0
	}
	sec, err := strconv.ParseInt(ci.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	days := int(now.Sub(time.Unix(sec, 0)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// GetSource fetches the published source record for a contract address.
func (c *Client) GetSource(ctx context.Context, address string) (*SourceInfo, error) {
	var results []SourceInfo
	if err := c.get(ctx, "contract", "getsourcecode", map[string]string{"address": address}, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no source record for %s", address)
	}
	return &results[0], nil
}

// GetCreation fetches the deployment record for a contract address.
func (c *Client) GetCreation(ctx context.Context, address string) (*CreationInfo, error) {
	var results []CreationInfo
	if err := c.get(ctx, "contract", "getcontractcreation", map[string]string{"contractaddresses": address}, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no creation record for %s", address)
	}
	return &results[0], nil
}
