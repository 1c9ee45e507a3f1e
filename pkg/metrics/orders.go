package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "zm"

// WorkflowMetrics counts order status transitions and moderation decisions.
type WorkflowMetrics struct {
	orderTransitions *prometheus.CounterVec
	approvals        *prometheus.CounterVec
	moderations      *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow counters on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status transitions by source and target status.",
	}, []string{"from", "to"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_decisions_total",
		Help:      "Admin approval decisions by subject and decision.",
	}, []string{"subject", "decision"})
	moderations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comment_moderations_total",
		Help:      "Blog comment moderation actions by resulting status.",
	}, []string{"status"})
	reg.MustRegister(transitions, approvals, moderations)
	return &WorkflowMetrics{
		orderTransitions: transitions,
		approvals:        approvals,
		moderations:      moderations,
	}
}

// IncOrderTransition records an order moving between statuses.
func (m *WorkflowMetrics) IncOrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncApproval records an approval decision.
func (m *WorkflowMetrics) IncApproval(subject, decision string) {
	if m == nil || m.approvals == nil {
		return
	}
	m.approvals.WithLabelValues(normalizeLabel(subject), normalizeLabel(decision)).Inc()
}

// IncModeration records a comment moderation action.
func (m *WorkflowMetrics) IncModeration(status string) {
	if m == nil || m.moderations == nil {
		return
	}
	m.moderations.WithLabelValues(normalizeLabel(status)).Inc()
}
