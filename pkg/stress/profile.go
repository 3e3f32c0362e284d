// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stress

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pawelgaczynski/msgqueue/logger"
	"github.com/pkg/errors"
)

// Profile is the YAML form of a stress configuration. Omitted keys keep their defaults.
//
//	producers: 8
//	valuesPerProducer: 100000
//	mode: concurrent
//	timeout: 1m
type Profile struct {
	Producers         *int    `yaml:"producers"`
	ValuesPerProducer *int    `yaml:"valuesPerProducer"`
	Workers           *int    `yaml:"workers"`
	Mode              *string `yaml:"mode"`
	Timeout           *string `yaml:"timeout"`
	LockOSThread      *bool   `yaml:"lockOSThread"`
	CPUAffinity       *bool   `yaml:"cpuAffinity"`
	ProcessPriority   *bool   `yaml:"processPriority"`
	LoggerLevel       *string `yaml:"loggerLevel"`
	PrettyLogger      *bool   `yaml:"prettyLogger"`
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) ([]ConfigOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading profile %s", path)
	}

	opts, err := ParseProfile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing profile %s", path)
	}

	return opts, nil
}

// ParseProfile turns a YAML profile into config options.
func ParseProfile(data []byte) ([]ConfigOption, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, err
	}

	return profile.options()
}

func (p Profile) options() ([]ConfigOption, error) {
	var opts []ConfigOption

	if p.Producers != nil {
		opts = append(opts, WithProducers(*p.Producers))
	}

	if p.ValuesPerProducer != nil {
		opts = append(opts, WithValuesPerProducer(*p.ValuesPerProducer))
	}

	if p.Workers != nil {
		opts = append(opts, WithWorkers(*p.Workers))
	}

	if p.Mode != nil {
		opts = append(opts, WithConsumerMode(ConsumerMode(*p.Mode)))
	}

	if p.Timeout != nil {
		timeout, err := time.ParseDuration(*p.Timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "timeout")
		}

		opts = append(opts, WithTimeout(timeout))
	}

	if p.LockOSThread != nil {
		opts = append(opts, WithLockOSThread(*p.LockOSThread))
	}

	if p.CPUAffinity != nil {
		opts = append(opts, WithCPUAffinity(*p.CPUAffinity))
	}

	if p.ProcessPriority != nil {
		opts = append(opts, WithProcessPriority(*p.ProcessPriority))
	}

	if p.LoggerLevel != nil {
		level, err := logger.ParseLevel(*p.LoggerLevel)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithLoggerLevel(level))
	}

	if p.PrettyLogger != nil {
		opts = append(opts, WithPrettyLogger(*p.PrettyLogger))
	}

	return opts, nil
}
