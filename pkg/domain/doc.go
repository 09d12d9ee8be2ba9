/*
Package domain contains the core domain models for the Parley conversation engine.

It defines the fundamental entities of the context/step state machine: Contexts
(subject/persona scopes), Steps (phases within a context), the Session State, and
the results of transition attempts. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Context: A subject or persona scope of the conversation (math, japanese, triage...).
  - Step: A phase within a context, with a completion criterion and transition whitelists.
  - State: The runtime snapshot of a session (current context/step, history, prompt scope).
  - TransitionResult: What happened on an Advance call, plus transport side effects
    (filler utterance, scripted text, voice change).
*/
package domain
