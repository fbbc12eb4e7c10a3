// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"testing"
)

func TestChatNormalMessagePasses(t *testing.T) {
	var hist ChatHistory
	msg, ok := hist.Update("anyone want to take the wyrm?", false)
	if !ok {
		t.Fatalf("innocuous first message blocked")
	}
	if msg != "anyone want to take the wyrm?" {
		t.Errorf("message altered: %q", msg)
	}
}

func TestChatInappropriateCensored(t *testing.T) {
	var hist ChatHistory
	msg, ok := hist.Update("that was fucking close", false)
	if ok && msg == "that was fucking close" {
		t.Errorf("inappropriate message passed uncensored")
	}
}

func TestChatFloodBlocked(t *testing.T) {
	var hist ChatHistory
	blocked := false
	for i := 0; i < 15; i++ {
		if _, ok := hist.Update(fmt.Sprintf("message number %d padding padding", i), false); !ok {
			blocked = true
		}
	}
	if !blocked {
		t.Errorf("15 rapid messages never blocked")
	}
}

func TestChatTeamMoreLenient(t *testing.T) {
	var hist ChatHistory
	for i := 0; i < 15; i++ {
		if _, ok := hist.Update(fmt.Sprintf("group on wyrm in %d seconds everyone", i), true); !ok {
			t.Fatalf("clean team message %d blocked", i)
		}
	}
}

func TestChatRepetitionBlocked(t *testing.T) {
	var hist ChatHistory
	blocked := false
	for i := 0; i < 8; i++ {
		if _, ok := hist.Update("gg", false); !ok {
			blocked = true
		}
	}
	if !blocked {
		t.Errorf("repeated identical messages never blocked")
	}
}
