// Package a2a implements the subset of the Agent-to-Agent protocol used to
// run panel members as separate processes: agent card discovery,
// message/send and tasks/get over JSON-RPC 2.0.
package a2a
