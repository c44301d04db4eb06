package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	toolscache "k8s.io/client-go/tools/cache"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"

	supvisorsv1alpha1 "github.com/julien6387/supvisors/pkg/apis/supvisors/v1alpha1"
	"github.com/julien6387/supvisors/pkg/logging"
)

// AddressSet is a de-duplicated, sorted snapshot of the fleet's addresses
// as observed across every AddressBook resource in the watched namespace.
type AddressSet []string

// Watcher watches AddressBook custom resources via a controller-runtime
// informer cache and republishes the merged address set on every change.
type Watcher struct {
	mu sync.RWMutex

	restConfig *rest.Config
	namespace  string
	scheme     *runtime.Scheme

	cache   cache.Cache
	books   map[string][]string
	running bool
}

// NewWatcher creates a Watcher for the given namespace (empty watches all
// namespaces).
func NewWatcher(restConfig *rest.Config, namespace string) (*Watcher, error) {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(supvisorsv1alpha1.AddToScheme(scheme))

	return &Watcher{
		restConfig: restConfig,
		namespace:  namespace,
		scheme:     scheme,
		books:      make(map[string][]string),
	}, nil
}

// Start begins watching AddressBook resources and emits a merged AddressSet
// on the returned channel every time any book changes, until ctx is
// canceled.
func (w *Watcher) Start(ctx context.Context) (<-chan AddressSet, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil, fmt.Errorf("discovery watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	cacheOpts := cache.Options{Scheme: w.scheme}
	if w.namespace != "" {
		cacheOpts.DefaultNamespaces = map[string]cache.Config{w.namespace: {}}
	}

	c, err := cache.New(w.restConfig, cacheOpts)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	w.mu.Lock()
	w.cache = c
	w.mu.Unlock()

	out := make(chan AddressSet, 1)

	informer, err := c.GetInformer(ctx, &supvisorsv1alpha1.AddressBook{})
	if err != nil {
		return nil, fmt.Errorf("get informer: %w", err)
	}

	if _, err := informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc:    func(obj interface{}) { w.handleUpsert(obj, out) },
		UpdateFunc: func(_, obj interface{}) { w.handleUpsert(obj, out) },
		DeleteFunc: func(obj interface{}) { w.handleDelete(obj, out) },
	}); err != nil {
		return nil, fmt.Errorf("add event handler: %w", err)
	}

	go func() {
		if err := c.Start(ctx); err != nil {
			logging.Error("discovery", err, "cache stopped with error")
		}
	}()

	if !c.WaitForCacheSync(ctx) {
		return nil, fmt.Errorf("failed to sync AddressBook cache")
	}

	logging.Info("discovery", "watching AddressBook resources in %s", w.namespaceDisplay())
	return out, nil
}

func (w *Watcher) handleUpsert(obj interface{}, out chan<- AddressSet) {
	book, ok := obj.(*supvisorsv1alpha1.AddressBook)
	if !ok {
		logging.Warn("discovery", "unexpected object type in AddressBook event handler")
		return
	}

	w.mu.Lock()
	w.books[book.GetName()] = append([]string(nil), book.Spec.Addresses...)
	merged := w.mergedLocked()
	w.mu.Unlock()

	w.publish(out, merged)
}

func (w *Watcher) handleDelete(obj interface{}, out chan<- AddressSet) {
	if deletedState, ok := obj.(toolscache.DeletedFinalStateUnknown); ok {
		obj = deletedState.Obj
	}
	book, ok := obj.(*supvisorsv1alpha1.AddressBook)
	if !ok {
		return
	}

	w.mu.Lock()
	delete(w.books, book.GetName())
	merged := w.mergedLocked()
	w.mu.Unlock()

	w.publish(out, merged)
}

func (w *Watcher) mergedLocked() AddressSet {
	seen := make(map[string]struct{})
	for _, addrs := range w.books {
		for _, a := range addrs {
			seen[a] = struct{}{}
		}
	}
	merged := make(AddressSet, 0, len(seen))
	for a := range seen {
		merged = append(merged, a)
	}
	sort.Strings(merged)
	return merged
}

func (w *Watcher) publish(out chan<- AddressSet, set AddressSet) {
	select {
	case out <- set:
	default:
		logging.Warn("discovery", "address set channel full, dropping update")
	}
}

func (w *Watcher) namespaceDisplay() string {
	if w.namespace == "" {
		return "all namespaces"
	}
	return w.namespace
}

// GetRestConfig is a convenience wrapper around controller-runtime's
// in-cluster/kubeconfig detection.
func GetRestConfig() (*rest.Config, error) {
	return ctrl.GetConfig()
}

// IsKubernetesAvailable reports whether a cluster is reachable, used to
// decide at startup whether to fall back to the static address_list.
func IsKubernetesAvailable() bool {
	config, err := ctrl.GetConfig()
	if err != nil {
		return false
	}
	_, err = client.New(config, client.Options{})
	return err == nil
}
