/*
Package errors provides semantic error types for storehub.

Every failure a caller can observe falls into one of a few kinds, each with a
sentinel that works with errors.Is and an IsX helper:

	var (
	    ErrInitializerNotFound  // service name has no registered initializer
	    ErrInitializationFailed // the initializer reported failure
	    ErrRecordNotFound       // update target absent
	    ErrViewNotFound         // named dynamic view absent
	    ErrMalformedInput       // parameter failed to parse
	    ErrInstanceClosed       // instance was shut down
	    ErrNotFound             // collection (or other named resource) absent
	    ErrAlreadyExists        // unique index violation
	    ErrInvalidInput         // store-side validation
	)

Usage:

	rec, err := hub.Update(ctx, key, "users", payload)
	if err != nil {
	    if errors.IsRecordNotFound(err) {
	        // nothing was written
	    }
	    return err
	}

Kind maps an error to a stable name ("MalformedInput", "ViewNotFound", ...)
for use at the process boundary.
*/
package errors
