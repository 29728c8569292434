// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer used by the I/O
// manager's per-thread event loop: level-triggered, descriptor-keyed,
// epoll(7)-backed on Linux.
package reactor
