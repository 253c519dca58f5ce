/*
Package thoughttree runs Tree-of-Thoughts beam search over a bounded
reasoning tree, with durable crash recovery.

# Overview

Given an open-ended problem, the orchestrator repeatedly generates
candidate reasoning branches with an LLM, scores them with a second
LLM call, keeps the most promising ones (beam search), and expands the
survivors, until an evaluator signals a terminal answer or the depth
limit is reached.

The search runs as an explicit state machine. Every phase transition
is checkpointed to a durable substrate, and every LLM call outcome is
committed to an append-only ledger before it is used. A crashed search
resumes at its last committed transition, replaying committed calls
from the ledger instead of reissuing them.

# Basic Usage

	store, err := checkpoint.NewSQLiteStore("searches.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	client := llm.NewOpenAI(os.Getenv("OPENAI_API_KEY"))
	sub, err := thoughttree.NewSubmitter(store, client, client)
	if err != nil {
	    log.Fatal(err)
	}

	result, err := sub.Submit(ctx, "How should we price the new tier?", thoughttree.SearchConfig{})
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(result.Answer)

A crashed search is picked up by ID:

	result, err := sub.Resume(ctx, searchID)

# Subpackages

  - checkpoint: durable Store and call Ledger (memory and SQLite)
  - llm: Generator/Evaluator contracts and the OpenAI implementation
  - errors: failure taxonomy and bounded retry with backoff
  - observability: slog enrichment, OTel metrics and tracing
  - config: file-backed configuration for the CLI
  - signal: out-of-band cancellation of running searches
*/
package thoughttree
