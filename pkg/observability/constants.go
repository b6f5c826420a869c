// Copyright 2025 Kadir Pekel
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

package observability

const (
	DefaultServiceName  = "a2achat"
	DefaultSamplingRate = 1.0
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsPath  = "/metrics"

	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"

	// Meter and metric names.
	MeterName             = "github.com/kadirpekel/a2achat"
	MetricTurns           = "a2achat_turns_total"
	MetricTurnDuration    = "a2achat_turn_duration_seconds"
	MetricStatusChanges   = "a2achat_task_status_changes_total"
	MetricPushNotifyTotal = "a2achat_push_notifications_total"

	AttrOutcome    = "outcome"
	AttrTaskState  = "task_state"
	AttrPushResult = "result"
)
