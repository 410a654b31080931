package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// QuotaPolicy decides which plans are metered and how far.
type QuotaPolicy struct {
	// TrialPlans are the plan names subject to the limit. Matching ignores case.
	TrialPlans []string `mapstructure:"trialPlans"`
	// TrialLimit applies when the subscription record carries no limit of its own.
	TrialLimit int `mapstructure:"trialLimit"`
	// GuardedActions are the actions the gate checks.
	GuardedActions []string `mapstructure:"guardedActions"`
}

func DefaultQuotaPolicy() QuotaPolicy {
	return QuotaPolicy{
		TrialPlans:     []string{"trial", ""},
		TrialLimit:     10,
		GuardedActions: []string{"save_invoice", "download_pdf"},
	}
}

// IsTrial reports whether plan is metered.
func (p QuotaPolicy) IsTrial(plan string) bool {
	plan = strings.ToLower(strings.TrimSpace(plan))
	for _, t := range p.TrialPlans {
		if strings.ToLower(strings.TrimSpace(t)) == plan {
			return true
		}
	}
	return false
}

// Guards reports whether action is checked by the gate.
func (p QuotaPolicy) Guards(action string) bool {
	for _, a := range p.GuardedActions {
		if a == action {
			return true
		}
	}
	return false
}

type QuotaPolicyHolder struct {
	current atomic.Value // holds QuotaPolicy
}

// NewStaticQuotaPolicyHolder pins policy without any file watching.
func NewStaticQuotaPolicyHolder(policy QuotaPolicy) *QuotaPolicyHolder {
	h := &QuotaPolicyHolder{}
	h.current.Store(policy)
	return h
}

// NewQuotaPolicyHolder reads quota.yml from the usual config paths and reloads it on change.
// A missing file yields the defaults.
func NewQuotaPolicyHolder(log *zap.Logger) (*QuotaPolicyHolder, error) {
	v := viper.New()
	v.SetConfigName("quota")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicekit")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	return newQuotaPolicyHolder(v, log)
}

// NewQuotaPolicyHolderFromFile reads the policy from path.
func NewQuotaPolicyHolderFromFile(path string, log *zap.Logger) (*QuotaPolicyHolder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return newQuotaPolicyHolder(v, log)
}

func newQuotaPolicyHolder(v *viper.Viper, log *zap.Logger) (*QuotaPolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("quota-config")

	v.SetEnvPrefix("INVOICEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultQuotaPolicy()
	v.SetDefault("quota.trialPlans", defaults.TrialPlans)
	v.SetDefault("quota.trialLimit", defaults.TrialLimit)
	v.SetDefault("quota.guardedActions", defaults.GuardedActions)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	var policy QuotaPolicy
	if err := v.UnmarshalKey("quota", &policy); err != nil {
		return nil, err
	}
	if err := validateQuotaPolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticQuotaPolicyHolder(policy)
	if !found {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated QuotaPolicy
		if err := v.UnmarshalKey("quota", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateQuotaPolicy(updated); err != nil {
			log.Warn("invalid policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *QuotaPolicyHolder) Get() QuotaPolicy {
	return h.current.Load().(QuotaPolicy)
}

func validateQuotaPolicy(p QuotaPolicy) error {
	if p.TrialLimit < 0 {
		return errors.New("quota.trialLimit cannot be negative")
	}
	if len(p.GuardedActions) == 0 {
		return errors.New("quota.guardedActions cannot be empty")
	}
	return nil
}
