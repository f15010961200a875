package dataset

import "strings"

type PolicyKind string

const (
	PolicyReplaceAll         PolicyKind = "replace_all"
	PolicyReplaceByPartition PolicyKind = "replace_by_partition"
	PolicyAppend             PolicyKind = "append"
)

// ConflictPolicy decides which stored rows a batch supersedes.
type ConflictPolicy struct {
	Kind      PolicyKind
	Partition []string
}

func ReplaceAll() ConflictPolicy {
	return ConflictPolicy{Kind: PolicyReplaceAll}
}

func ReplaceByPartition(columns ...string) ConflictPolicy {
	return ConflictPolicy{Kind: PolicyReplaceByPartition, Partition: append([]string(nil), columns...)}
}

func Append() ConflictPolicy {
	return ConflictPolicy{Kind: PolicyAppend}
}

func (p ConflictPolicy) String() string {
	if p.Kind == PolicyReplaceByPartition {
		return string(p.Kind) + "(" + strings.Join(p.Partition, ",") + ")"
	}
	return string(p.Kind)
}
