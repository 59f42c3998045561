package apify

import (
	"encoding/json"
	"fmt"
)

// RunStatus is the lifecycle state of an actor run.
type RunStatus string

const (
	RunStatusReady     RunStatus = "READY"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusTimingOut RunStatus = "TIMING-OUT"
	RunStatusTimedOut  RunStatus = "TIMED-OUT"
	RunStatusAborting  RunStatus = "ABORTING"
	RunStatusAborted   RunStatus = "ABORTED"
)

// IsTerminal reports whether the run has finished and its status will not
// change again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusTimedOut, RunStatusAborted:
		return true
	}
	return false
}

// GeneralAccess controls who can read a run's storages.
type GeneralAccess string

const (
	GeneralAccessFollowUserSetting   GeneralAccess = "FOLLOW_USER_SETTING"
	GeneralAccessRestricted          GeneralAccess = "RESTRICTED"
	GeneralAccessAnyoneWithIDCanRead GeneralAccess = "ANYONE_WITH_ID_CAN_READ"
)

// ActorRun describes a single execution of an actor.
type ActorRun struct {
	ID                     string             `json:"id"`
	ActID                  string             `json:"actId"`
	ActorTaskID            string             `json:"actorTaskId,omitempty"`
	UserID                 string             `json:"userId,omitempty"`
	StartedAt              string             `json:"startedAt,omitempty"`
	FinishedAt             string             `json:"finishedAt,omitempty"`
	Status                 RunStatus          `json:"status"`
	StatusMessage          string             `json:"statusMessage,omitempty"`
	Meta                   *RunMeta           `json:"meta,omitempty"`
	Stats                  *RunStats          `json:"stats,omitempty"`
	Options                *RunOptions        `json:"options,omitempty"`
	BuildID                string             `json:"buildId,omitempty"`
	BuildNumber            string             `json:"buildNumber,omitempty"`
	ExitCode               *int               `json:"exitCode,omitempty"`
	DefaultKeyValueStoreID string             `json:"defaultKeyValueStoreId,omitempty"`
	DefaultDatasetID       string             `json:"defaultDatasetId,omitempty"`
	DefaultRequestQueueID  string             `json:"defaultRequestQueueId,omitempty"`
	ContainerURL           string             `json:"containerUrl,omitempty"`
	IsContainerServerReady *bool              `json:"isContainerServerReady,omitempty"`
	GitBranchName          string             `json:"gitBranchName,omitempty"`
	Usage                  *RunUsage          `json:"usage,omitempty"`
	UsageTotalUsd          *float64           `json:"usageTotalUsd,omitempty"`
	UsageUsd               *RunUsage          `json:"usageUsd,omitempty"`
	PricingInfo            PricingInfo        `json:"pricingInfo,omitempty"`
	ChargedEventCounts     map[string]float64 `json:"chargedEventCounts,omitempty"`
	GeneralAccess          GeneralAccess      `json:"generalAccess,omitempty"`
}

// UnmarshalJSON decodes the run and resolves the pricing variant.
func (r *ActorRun) UnmarshalJSON(data []byte) error {
	type alias ActorRun
	aux := struct {
		*alias
		PricingInfo json.RawMessage `json:"pricingInfo,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.PricingInfo = nil
	if len(aux.PricingInfo) == 0 || string(aux.PricingInfo) == "null" {
		return nil
	}
	p, err := DecodePricingInfo(aux.PricingInfo)
	if err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.PricingInfo = p
	return nil
}

// RunMeta records how a run was started.
type RunMeta struct {
	Origin    string `json:"origin,omitempty"`
	ClientIP  string `json:"clientIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// RunStats holds resource statistics of a run.
type RunStats struct {
	InputBodyLen    *float64 `json:"inputBodyLen,omitempty"`
	RestartCount    *float64 `json:"restartCount,omitempty"`
	ResurrectCount  *float64 `json:"resurrectCount,omitempty"`
	MemAvgBytes     *float64 `json:"memAvgBytes,omitempty"`
	MemMaxBytes     *float64 `json:"memMaxBytes,omitempty"`
	MemCurrentBytes *float64 `json:"memCurrentBytes,omitempty"`
	CPUAvgUsage     *float64 `json:"cpuAvgUsage,omitempty"`
	CPUMaxUsage     *float64 `json:"cpuMaxUsage,omitempty"`
	CPUCurrentUsage *float64 `json:"cpuCurrentUsage,omitempty"`
	NetRxBytes      *float64 `json:"netRxBytes,omitempty"`
	NetTxBytes      *float64 `json:"netTxBytes,omitempty"`
	DurationMillis  *float64 `json:"durationMillis,omitempty"`
	RunTimeSecs     *float64 `json:"runTimeSecs,omitempty"`
	Metamorph       *float64 `json:"metamorph,omitempty"`
	ComputeUnits    *float64 `json:"computeUnits,omitempty"`
}

// RunOptions are the limits a run was started with.
type RunOptions struct {
	Build             string   `json:"build,omitempty"`
	TimeoutSecs       *float64 `json:"timeoutSecs,omitempty"`
	MemoryMbytes      *float64 `json:"memoryMbytes,omitempty"`
	DiskMbytes        *float64 `json:"diskMbytes,omitempty"`
	MaxTotalChargeUsd *float64 `json:"maxTotalChargeUsd,omitempty"`
}

// RunUsage is platform usage of a run, either in units or in USD.
type RunUsage struct {
	ActorComputeUnits              *float64 `json:"ACTOR_COMPUTE_UNITS,omitempty"`
	DatasetReads                   *float64 `json:"DATASET_READS,omitempty"`
	DatasetWrites                  *float64 `json:"DATASET_WRITES,omitempty"`
	KeyValueStoreReads             *float64 `json:"KEY_VALUE_STORE_READS,omitempty"`
	KeyValueStoreWrites            *float64 `json:"KEY_VALUE_STORE_WRITES,omitempty"`
	KeyValueStoreLists             *float64 `json:"KEY_VALUE_STORE_LISTS,omitempty"`
	RequestQueueReads              *float64 `json:"REQUEST_QUEUE_READS,omitempty"`
	RequestQueueWrites             *float64 `json:"REQUEST_QUEUE_WRITES,omitempty"`
	DataTransferInternalGbytes     *float64 `json:"DATA_TRANSFER_INTERNAL_GBYTES,omitempty"`
	DataTransferExternalGbytes     *float64 `json:"DATA_TRANSFER_EXTERNAL_GBYTES,omitempty"`
	ProxyResidentialTransferGbytes *float64 `json:"PROXY_RESIDENTIAL_TRANSFER_GBYTES,omitempty"`
	ProxySerps                     *float64 `json:"PROXY_SERPS,omitempty"`
}
