// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package reliability provides duplicate detection for inbound messages.

Senders retry when they do not see a response, so the same message id can
arrive more than once. The detector only reports repeats; storing a repeat
overwrites the earlier copy, which is legal.

	detector := reliability.NewDuplicateDetector(24 * time.Hour)
	defer detector.Close()

	if detector.Seen(messageID) {
	    logger.Info("duplicate message", slog.String("message_id", messageID))
	}
*/
package reliability
