// Cadetprep is an interview preparation dashboard for airline cadet pilot
// candidates.
//
// It serves built-in reference data (fleet, destinations, training aircraft,
// aviation history, dictionary, news) and AI-generated interview insights,
// with a response cache so the same question is not paid for twice.
//
// Usage:
//
//	cadetprep serve                         # JSON API on 127.0.0.1:8501
//	cadetprep ai generate dictionary        # new terms not yet in the dictionary
//	cadetprep ai generate training_aircraft --aircraft da42
//	cadetprep ai history news               # previous responses, newest first
//	cadetprep ref fleet --format yaml       # reference data
//	cadetprep config set gemini.api_key <key>
package main
